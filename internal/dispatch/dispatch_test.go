package dispatch

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// optTensor stands in for an optional backend's array type.
type optTensor struct {
	data []int
}

func TestDispatchByType(t *testing.T) {
	d := New("return_type_name")
	d.Register(int(0), func(any) (any, error) { return "int", nil })
	d.Register(float64(0), func(any) (any, error) { return "float", nil })

	got, err := d.Dispatch(5)
	require.NoError(t, err)
	assert.Equal(t, "int", got)

	got, err = d.Dispatch(5.0)
	require.NoError(t, err)
	assert.Equal(t, "float", got)
}

func TestDispatchMiss(t *testing.T) {
	d := New("return_type_name")
	d.Register(int(0), func(any) (any, error) { return "int", nil })

	_, err := d.Dispatch("abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.Contains(t, err.Error(), "string")
	assert.Contains(t, err.Error(), "return_type_name")

	var nie *NotImplementedError
	require.ErrorAs(t, err, &nie)
	assert.Equal(t, reflect.TypeOf(""), nie.Type)
}

func TestLazyRegistration(t *testing.T) {
	d := New("return_type_name")
	d.Register(int(0), func(any) (any, error) { return "int", nil })

	initRuns := 0
	d.RegisterLazy("internal/dispatch", func() error {
		initRuns++
		d.Register(&optTensor{}, func(any) (any, error) { return "tensor", nil })
		return nil
	})

	// The initializer must not run until a matching type is dispatched.
	_, err := d.Dispatch(5)
	require.NoError(t, err)
	assert.Equal(t, 0, initRuns)

	got, err := d.Dispatch(&optTensor{data: []int{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, "tensor", got)
	assert.Equal(t, 1, initRuns)

	// Repeated dispatch does not re-run the initializer.
	_, err = d.Dispatch(&optTensor{})
	require.NoError(t, err)
	assert.Equal(t, 1, initRuns)
}

func TestLazyMatchesPackagePathNotTypeName(t *testing.T) {
	d := New("return_type_name")

	// optTensor has "Tensor" in its name but is not defined under a
	// matching package; the lazy entry must not fire for it.
	initRuns := 0
	d.RegisterLazy("Tensor", func() error {
		initRuns++
		return nil
	})

	_, err := d.Dispatch(&optTensor{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.Equal(t, 0, initRuns)
}

func TestLazyRegistrationError(t *testing.T) {
	d := New("exchange")
	wantErr := errors.New("backend unavailable")
	d.RegisterLazy("internal/dispatch", func() error { return wantErr })

	_, err := d.Dispatch(&optTensor{})
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestExactMatchBeatsDefault(t *testing.T) {
	d := New("precedence")
	d.RegisterDefault(func(any) (any, error) { return "default", nil })
	d.Register(int(0), func(any) (any, error) { return "int", nil })

	got, err := d.Dispatch(7)
	require.NoError(t, err)
	assert.Equal(t, "int", got)

	got, err = d.Dispatch("anything")
	require.NoError(t, err)
	assert.Equal(t, "default", got)
}

func TestDispatchFor(t *testing.T) {
	d := New("from_capsule")
	d.Register(reflect.TypeOf(&optTensor{}), func(v any) (any, error) {
		return &optTensor{data: v.([]int)}, nil
	})

	got, err := d.DispatchFor(reflect.TypeOf(&optTensor{}), []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got.(*optTensor).data)
}

func TestConcurrentLazyTrigger(t *testing.T) {
	d := New("concurrent")
	var mu sync.Mutex
	initRuns := 0
	d.RegisterLazy("internal/dispatch", func() error {
		mu.Lock()
		initRuns++
		mu.Unlock()
		d.Register(&optTensor{}, func(any) (any, error) { return "tensor", nil })
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Dispatch(&optTensor{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, initRuns)
}
