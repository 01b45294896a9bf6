package async

import (
	"testing"
	"time"

	"golang.org/x/net/context"

	"github.com/gridmirror/gridmirror/engine/post"
)

func TestAppendAsyncJob(t *testing.T) {
	done := make(chan struct{})
	AppendAsyncJob("test", func(ctx context.Context) (interface{}, error) {
		return 42, nil
	}, func(res interface{}, err error) {
		if res.(int) != 42 || err != nil {
			t.Errorf("bad result: %v, %v", res, err)
		}
		close(done)
	})

	deadline := time.After(time.Second * 2)
	for {
		post.Tick()
		select {
		case <-done:
			return
		case <-deadline:
			t.Fatalf("callback never delivered")
		case <-time.After(time.Millisecond * 10):
		}
	}
}

func TestJobsOfGroupRunSerially(t *testing.T) {
	var order []int
	done := make(chan struct{})
	for i := 1; i <= 3; i++ {
		i := i
		AppendAsyncJob("serial", func(ctx context.Context) (interface{}, error) {
			return i, nil
		}, func(res interface{}, err error) {
			order = append(order, res.(int))
			if len(order) == 3 {
				close(done)
			}
		})
	}

	deadline := time.After(time.Second * 2)
	for {
		post.Tick()
		select {
		case <-done:
			for i, v := range order {
				if v != i+1 {
					t.Errorf("jobs ran out of order: %v", order)
				}
			}
			return
		case <-deadline:
			t.Fatalf("callbacks never delivered")
		case <-time.After(time.Millisecond * 10):
		}
	}
}
