package shapes

import (
	"errors"
	"fmt"
	"os"
)

type Grid struct {
	cells [][]int
}

// helper is a local helper function
func helper() int {
	return 42
}

func (g *Grid) Sum() (total int) {
	for _, row := range g.cells {
		for _, v := range row {
			if v < 0 {
				continue
			}
			total += v
		}
	}
	return
}

func (g Grid) Find(want int) (int, int, bool) {
outer:
	for i, row := range g.cells {
		for j, v := range row {
			switch {
			case v == want:
				return i, j, true
			case v > want:
				continue outer
			}
		}
	}
	return -1, -1, false
}

func classify(n int) string {
	switch n {
	case 0:
		return "zero"
	case 1, 2, 3:
		fallthrough
	case 4:
		return "small"
	default:
		return "large"
	}
}

func drain(ch <-chan int, done chan struct{}) (n int) {
	defer close(done)
	for v := range ch {
		if v == 0 {
			break
		}
		n += v
	}
	return
}

func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case int, int64:
		return fmt.Sprint(x)
	case error:
		return x.Error()
	}
	return "?"
}

func mustOpen(path string) *os.File {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			os.Exit(2)
		}
		panic(err)
	}
	return f
}

func retry(attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}

func main() {
	result := helper()
	g := &Grid{cells: [][]int{{1, -2}, {3}}}
	_ = retry(3, func() error {
		if g.Sum() > result {
			return nil
		}
		return errors.New("small")
	})
	fmt.Println(result, g.Sum(), classify(2), describe(1))
}
