package rates

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/service"
)

// fakeSource returns canned tables and counts calls.
type fakeSource struct {
	err     error
	table   Table
	release chan struct{}
	started chan struct{}
	name    string
	calls   atomic.Int32
}

func (f *fakeSource) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeSource) FetchRates(ctx context.Context, _, _ string) (Table, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.table.Clone(), nil
}

type fakeCompleter struct {
	err      error
	response string
	prompt   string
}

func (f *fakeCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func TestMultiSource_MergesPartialResults(t *testing.T) {
	first := &fakeSource{name: "a", table: Table{"USD/RUB": 90, "USD/IDR": 15000}}
	second := &fakeSource{name: "b", table: Table{"USD/RUB": 91}}
	broken := &fakeSource{name: "c", err: errors.New("boom")}

	m := NewMultiSource(nil, first, broken, second)
	got, err := m.FetchRates(context.Background(), "IDR", "RUB")
	require.NoError(t, err)
	assert.Equal(t, Table{"USD/RUB": 91, "USD/IDR": 15000}, got)
	assert.Equal(t, "a+c+b", m.Name())
}

func TestMultiSource_AllFail(t *testing.T) {
	m := NewMultiSource(nil,
		&fakeSource{err: errors.New("down")},
		&fakeSource{err: common.ErrRateLimit},
	)
	_, err := m.FetchRates(context.Background(), "IDR", "RUB")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRateSource)
	assert.ErrorIs(t, err, common.ErrRateLimit)

	_, err = NewMultiSource(nil).FetchRates(context.Background(), "IDR", "RUB")
	assert.ErrorIs(t, err, common.ErrRateSource)
}

func TestLLMSource_FetchRates(t *testing.T) {
	c := &fakeCompleter{response: "USD/IDR: 16,180\nUSD/RUB: 92.4\nIDR/RUB: 0.0057"}
	src := NewLLMSource(c)

	got, err := src.FetchRates(context.Background(), "idr", "rub")
	require.NoError(t, err)
	assert.Equal(t, Table{"USD/IDR": 16180, "USD/RUB": 92.4, "IDR/RUB": 0.0057}, got)
	assert.Contains(t, c.prompt, "USD/IDR")
	assert.Contains(t, c.prompt, "IDR/RUB")
	assert.Contains(t, c.prompt, "RUB/IDR")
	assert.Equal(t, "llm", src.Name())
}

func TestLLMSource_Errors(t *testing.T) {
	_, err := NewLLMSource(&fakeCompleter{err: errors.New("api down")}).FetchRates(context.Background(), "IDR", "RUB")
	assert.ErrorIs(t, err, common.ErrRateSource)

	_, err = NewLLMSource(&fakeCompleter{response: "no idea"}).FetchRates(context.Background(), "IDR", "RUB")
	assert.ErrorIs(t, err, common.ErrNoRates)
}

func staticPair() (string, string) { return "IDR", "RUB" }

func TestRefresher_Refresh(t *testing.T) {
	src := &fakeSource{table: Table{"USD/RUB": 90}}
	var got []Table
	r := NewRefresher(src, staticPair, func(t Table) { got = append(got, t) })

	table, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Table{"USD/RUB": 90}, table)
	require.Len(t, got, 1)
	assert.Equal(t, table, got[0])
}

func TestRefresher_FailureKeepsCallbackQuiet(t *testing.T) {
	src := &fakeSource{err: &common.RetryableError{Err: errors.New("bad key"), Retryable: false}}
	called := false
	r := NewRefresher(src, staticPair, func(Table) { called = true },
		WithRetryOptions(service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond}))

	_, err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, int32(1), src.calls.Load(), "non-retryable errors stop immediately")
}

func TestRefresher_RetriesTransientErrors(t *testing.T) {
	src := &fakeSource{err: common.ErrRateSource}
	r := NewRefresher(src, staticPair, nil,
		WithRetryOptions(service.RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}))

	_, err := r.Refresh(context.Background())
	assert.ErrorIs(t, err, common.ErrMaxRetries)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestRefresher_SingleInFlight(t *testing.T) {
	src := &fakeSource{
		table:   Table{"USD/RUB": 90},
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	var applied atomic.Int32
	r := NewRefresher(src, staticPair, func(Table) { applied.Add(1) })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := r.Refresh(context.Background())
		assert.NoError(t, err)
	}()
	<-src.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := r.Refresh(context.Background())
		assert.NoError(t, err)
	}()
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, int32(1), applied.Load())
}

func TestRefresher_StartStop(t *testing.T) {
	src := &fakeSource{table: Table{"USD/RUB": 90}}
	done := make(chan Table, 1)
	r := NewRefresher(src, staticPair, func(t Table) {
		select {
		case done <- t:
		default:
		}
	}, WithInterval(time.Hour))
	assert.Equal(t, time.Hour, r.Interval())

	require.NoError(t, r.Start(context.Background()))
	assert.Error(t, r.Start(context.Background()), "second start is rejected")

	select {
	case table := <-done:
		assert.Equal(t, Table{"USD/RUB": 90}, table)
	case <-time.After(2 * time.Second):
		t.Fatal("initial refresh did not run")
	}

	r.Stop()
	r.Stop()
}
