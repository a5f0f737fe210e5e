package callback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type DispatcherHooksSuite struct {
	suite.Suite

	dispatched []string
	succeeded  []string
	failed     []error
	warned     []string
	dropped    [][]string
	durations  []time.Duration

	dispatcher *Dispatcher
}

func (s *DispatcherHooksSuite) SetupTest() {
	s.dispatched = nil
	s.succeeded = nil
	s.failed = nil
	s.warned = nil
	s.dropped = nil
	s.durations = nil

	s.dispatcher = New(
		WithOnDispatch(func(ctx context.Context, handler string) {
			s.dispatched = append(s.dispatched, handler)
		}),
		WithOnSuccess(func(ctx context.Context, handler string, d time.Duration) {
			s.succeeded = append(s.succeeded, handler)
			s.durations = append(s.durations, d)
		}),
		WithOnFailure(func(ctx context.Context, handler string, err error, d time.Duration) {
			s.failed = append(s.failed, err)
		}),
		WithOnBindWarning(func(ctx context.Context, handler, param string) {
			s.warned = append(s.warned, param)
		}),
		WithOnDropped(func(ctx context.Context, handler string, keys []string) {
			s.dropped = append(s.dropped, keys)
		}),
	)
}

func TestDispatcherHooksSuite(t *testing.T) {
	suite.Run(t, new(DispatcherHooksSuite))
}

func (s *DispatcherHooksSuite) TestOnDispatchAndOnSuccess() {
	h := Func(func(a int) int { return a }, "a")

	_, err := s.dispatcher.ApplyArgs(context.Background(), h, Args{"a": 1})

	s.Require().NoError(err)
	s.Assert().Len(s.dispatched, 1)
	s.Assert().Len(s.succeeded, 1)
	s.Assert().Empty(s.failed)
}

func (s *DispatcherHooksSuite) TestOnFailureReceivesHandlerError() {
	wantErr := errors.New("teardown failed")
	h := Func(func(state string) error { return wantErr }, "state")

	_, err := s.dispatcher.ApplyArgs(context.Background(), h, Args{"state": "x"})

	s.Require().ErrorIs(err, wantErr)
	s.Require().Len(s.failed, 1)
	s.Assert().ErrorIs(s.failed[0], wantErr)
	s.Assert().Empty(s.succeeded)
}

func (s *DispatcherHooksSuite) TestOnBindWarningNamesParam() {
	h := Func(func(a, b int) int { return a + b }, "a", "b")

	_, err := s.dispatcher.ApplyArgs(context.Background(), h, Args{"a": 1})

	s.Require().Error(err)
	s.Assert().Equal([]string{"b"}, s.warned)
}

func (s *DispatcherHooksSuite) TestOnDroppedReportsUnclaimedKeys() {
	h := Func(func(a int) int { return a }, "a")

	_, err := s.dispatcher.ApplyArgs(context.Background(), h, Args{"a": 1, "stray": true})

	s.Require().NoError(err)
	s.Require().Len(s.dropped, 1)
	s.Assert().Equal([]string{"stray"}, s.dropped[0])
}

func (s *DispatcherHooksSuite) TestNoDroppedHookForKwRest() {
	h, err := NewHandler(
		func(a int, rest map[string]any) int { return a },
		Params(P("a"), KwRest("rest")),
	)
	s.Require().NoError(err)

	_, err = s.dispatcher.ApplyArgs(context.Background(), h, Args{"a": 1, "stray": true})

	s.Require().NoError(err)
	s.Assert().Empty(s.dropped)
}

func (s *DispatcherHooksSuite) TestSuccessCoversBridgedTasks() {
	h, err := NewHandler(func() *Task {
		return NewTask(func(ctx context.Context) (any, error) {
			time.Sleep(time.Millisecond)
			return "ok", nil
		})
	})
	s.Require().NoError(err)

	_, err = s.dispatcher.ApplyArgs(context.Background(), h, Args{})

	s.Require().NoError(err)
	s.Require().Len(s.durations, 1)
	s.Assert().GreaterOrEqual(s.durations[0], time.Millisecond)
}

func (s *DispatcherHooksSuite) TestMultipleHooksRunInOrder() {
	var order []string
	d := New(
		WithOnDispatch(func(ctx context.Context, handler string) {
			order = append(order, "first")
		}),
		WithOnDispatch(func(ctx context.Context, handler string) {
			order = append(order, "second")
		}),
	)
	h := Func(func() {})

	_, err := d.ApplyArgs(context.Background(), h, Args{})

	s.Require().NoError(err)
	s.Assert().Equal([]string{"first", "second"}, order)
}
