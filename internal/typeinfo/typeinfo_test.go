package typeinfo_test

import (
	"database/sql/driver"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/sqlmapper/internal/typeinfo"
)

type Person struct {
	Name string `db:"name"`
	ID   int    `db:"id,omitempty"`
}

func TestGetTypeInfoReflectsDBTags(t *testing.T) {
	info, err := typeinfo.GetTypeInfo(Person{})
	require.NoError(t, err)

	field, ok := info.TagToField["name"]
	require.True(t, ok)
	assert.Equal(t, "Name", field.Name)

	field, ok = info.TagToField["id"]
	require.True(t, ok)
	assert.True(t, field.OmitEmpty)
}

func TestGetTypeInfoRejectsNonStruct(t *testing.T) {
	_, err := typeinfo.GetTypeInfo(5)
	assert.Error(t, err)
}

func TestGetTypeInfoConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := typeinfo.GetTypeInfo(Person{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestResolveHandlerDefaultsToPassthrough(t *testing.T) {
	handler, err := typeinfo.ResolveHandler("")
	require.NoError(t, err)
	assert.Equal(t, typeinfo.Passthrough, handler)
}

func TestResolveHandlerUnknownNameFails(t *testing.T) {
	_, err := typeinfo.ResolveHandler("does-not-exist")
	assert.Error(t, err)
}

type upperHandler struct{}

func (upperHandler) SetParameter(value any) (driver.Value, error) { return value, nil }
func (upperHandler) GetResult(column any) (any, error)            { return column, nil }

func TestRegisterAndResolveHandler(t *testing.T) {
	typeinfo.RegisterTypeHandler("upper", upperHandler{})
	handler, err := typeinfo.ResolveHandler("upper")
	require.NoError(t, err)
	assert.NotNil(t, handler)
}
