package vision

import "render-ranker/internal/domain/entity"

const (
	cannyShift = 15
	// tan(22.5°) в фиксированной точке: (int)(0.4142135623730950488016887242097*(1<<cannyShift) + 0.5)
	tg22 int64 = 13573
)

// Метки карты: 0 кандидат, 1 точно не граница, 2 граница.
const (
	mapCandidate uint8 = 0
	mapNone      uint8 = 1
	mapEdge      uint8 = 2
)

// canny повторяет cv::Canny(apertureSize=3, L2gradient=false).
func canny(gray *entity.Plane, low, high int32) *entity.Plane {
	w, h := gray.Width, gray.Height
	dx, dy := sobel3(gray)

	mag := make([]int32, w*h)
	for i := range mag {
		mag[i] = abs32(dx[i]) + abs32(dy[i])
	}
	// за пределами изображения модуль градиента считается нулевым
	magAt := func(x, y int) int32 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	edgeMap := make([]uint8, w*h)
	stack := make([]int, 0, w*h/8+1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			edgeMap[i] = mapNone
			if m <= low {
				continue
			}

			xs := int64(abs32(dx[i]))
			ys := int64(abs32(dy[i])) << cannyShift
			tg22x := xs * tg22

			var local bool
			if ys < tg22x {
				local = m > magAt(x-1, y) && m >= magAt(x+1, y)
			} else {
				tg67x := tg22x + xs<<(cannyShift+1)
				if ys > tg67x {
					local = m > magAt(x, y-1) && m >= magAt(x, y+1)
				} else {
					s := 1
					if (dx[i] ^ dy[i]) < 0 {
						s = -1
					}
					local = m > magAt(x-s, y-1) && m > magAt(x+s, y+1)
				}
			}
			if !local {
				continue
			}
			if m > high {
				edgeMap[i] = mapEdge
				stack = append(stack, i)
			} else {
				edgeMap[i] = mapCandidate
			}
		}
	}

	// гистерезис: кандидаты, связанные с сильными границами (8-связность)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if edgeMap[j] == mapCandidate {
					edgeMap[j] = mapEdge
					stack = append(stack, j)
				}
			}
		}
	}

	out := make([]uint8, w*h)
	for i, v := range edgeMap {
		if v == mapEdge {
			out[i] = 255
		}
	}
	return &entity.Plane{Width: w, Height: h, Pix: out}
}

// sobel3 считает производные по x и y ядром 3x3 с повтором крайних пикселей.
func sobel3(gray *entity.Plane) (dx, dy []int32) {
	w, h := gray.Width, gray.Height
	at := func(x, y int) int32 {
		x = clampInt(x, 0, w-1)
		y = clampInt(y, 0, h-1)
		return int32(gray.Pix[y*w+x])
	}

	dx = make([]int32, w*h)
	dy = make([]int32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tl, t, tr := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			l, r := at(x-1, y), at(x+1, y)
			bl, b, br := at(x-1, y+1), at(x, y+1), at(x+1, y+1)

			dx[y*w+x] = (tr + 2*r + br) - (tl + 2*l + bl)
			dy[y*w+x] = (bl + 2*b + br) - (tl + 2*t + tr)
		}
	}
	return dx, dy
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
