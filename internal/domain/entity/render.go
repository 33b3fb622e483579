package entity

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
)

// TextureIndexImage индекс шейдера, который берёт фон из внешнего файла.
const TextureIndexImage = 6

// FrameFileExt расширение кадров, которые пишет рендер.
const FrameFileExt = ".png"

// FrameRange диапазон кадров рендера.
type FrameRange struct {
	Start int `json:"_frames_start"`
	Max   int `json:"_frames_max"`
}

// Pingpong режим проигрывания анимации. Принимает как bool, так и число.
type Pingpong float64

// UnmarshalJSON разбирает true/false или число.
func (p *Pingpong) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*p = 1
		return nil
	case "false", "null":
		*p = 0
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("pingpong: %w", err)
	}
	*p = Pingpong(v)
	return nil
}

// Enabled сообщает, включён ли режим.
func (p Pingpong) Enabled() bool {
	return p != 0
}

// RenderPayload параметры рендера, которые передаются хосту в base64-JSON.
type RenderPayload struct {
	ID              string         `json:"id"`
	TextureIndex    int            `json:"texture_index"`
	Repetition      int            `json:"repetition"`
	Scaling         float64        `json:"scaling"`
	Rotation        float64        `json:"rotation"`
	Pingpong        Pingpong       `json:"pingpong"`
	Frames          FrameRange     `json:"frames"`
	Composite       map[string]any `json:"composite,omitempty"`
	Texture         map[string]any `json:"texture,omitempty"`
	OutputDirectory string         `json:"output_directory"`
}

// DecodeRenderPayload разбирает base64-строку с JSON внутри.
func DecodeRenderPayload(encoded string) (*RenderPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode payload base64: %w", err)
	}

	var p RenderPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode payload json: %w", err)
	}
	if p.ID == "" {
		return nil, errors.New("payload has no id")
	}
	return &p, nil
}

// Encode кодирует параметры в base64-JSON для командной строки хоста.
func (p *RenderPayload) Encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// TextureFilePath возвращает путь к фоновой картинке для шейдера с индексом 6.
func (p *RenderPayload) TextureFilePath() (string, bool) {
	if p.TextureIndex != TextureIndexImage {
		return "", false
	}
	path, ok := p.Texture["file_path"].(string)
	return path, ok && path != ""
}

// ProjectDir каталог, куда складываются все артефакты рендера.
func (p *RenderPayload) ProjectDir() string {
	return filepath.Join(p.OutputDirectory, p.ID)
}

// FramePath путь к кадру с номером frame (frame_##### + расширение).
func (p *RenderPayload) FramePath(frame int) string {
	return filepath.Join(p.ProjectDir(), fmt.Sprintf("frame_%05d%s", frame, FrameFileExt))
}

// ParametersPath путь к сохранённому parameters.json.
func (p *RenderPayload) ParametersPath() string {
	return filepath.Join(p.ProjectDir(), "parameters.json")
}

// RenderStatus строка статуса, которую хост пишет в канал после каждого кадра.
type RenderStatus struct {
	ID    string `json:"id"`
	Frame int    `json:"frame"`
}

// ParseRenderStatus разбирает одну строку NDJSON.
func ParseRenderStatus(line []byte) (RenderStatus, error) {
	var s RenderStatus
	if err := json.Unmarshal(bytes.TrimSpace(line), &s); err != nil {
		return RenderStatus{}, fmt.Errorf("parse render status: %w", err)
	}
	if s.ID == "" {
		return RenderStatus{}, errors.New("render status has no id")
	}
	return s, nil
}
