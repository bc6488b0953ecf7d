package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ffaiyaz23/commercechat/internal/search"
	"go.uber.org/zap"
)

// RunSearch treats every line of r as a new query. Queries run in the
// background; a query typed before the previous one answered supersedes it.
func RunSearch(ctx context.Context, app *search.App, r io.Reader, w io.Writer) error {
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	emit := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, s)
	}

	emit("AI Commerce Search")
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := app.SearchFor(ctx, q)
			switch {
			case errors.Is(err, search.ErrSuperseded):
			case err != nil:
				zap.S().Errorw("search failed", "error", err)
				emit("search failed: " + err.Error())
			default:
				emit(res)
			}
		}()
	}
	wg.Wait()
	return scanner.Err()
}
