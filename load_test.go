package spin_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summit58/camunda-spin"
	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/format/json"
	"github.com/summit58/camunda-spin/source"
	"github.com/summit58/camunda-spin/source/bytes"
	"github.com/summit58/camunda-spin/source/fs"
)

func TestLoadSave_Bytes(t *testing.T) {
	ctx := context.Background()
	src := bytes.FromString(`{"customer":"Kermit"}`)

	n, err := spin.Load(ctx, src)
	require.NoError(t, err)
	j, err := json.AsNode(n)
	require.NoError(t, err)
	require.NoError(t, j.SetField("customer", "Piggy"))
	require.NoError(t, spin.Save(ctx, src, n))

	raw, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"customer":"Piggy"}`, string(raw))

	err = spin.Save(ctx, bytes.FromString("{}", bytes.ReadOnly()), n)
	assert.ErrorIs(t, err, source.ErrSaveNotSupported)
}

func TestLoadSave_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "order.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<order id="1"/>`), 0o644))

	src := fs.New(path)
	e, err := spin.Load(ctx, src)
	require.NoError(t, err)
	order, err := spin.XML(e)
	require.NoError(t, err)
	order.SetAttr("id", "2")
	require.NoError(t, spin.Save(ctx, src, order))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `<order id="2"/>`, string(raw))

	_, err = spin.Load(ctx, fs.New(filepath.Join(t.TempDir(), "missing.xml")))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := bytes.FromString(`{"v":1}`)
	got := make(chan dataformat.Node, 1)
	stop, err := spin.Watch(ctx, src, func(n dataformat.Node, err error) {
		if assert.NoError(t, err) {
			got <- n
		}
	})
	require.NoError(t, err)
	defer stop()

	require.NoError(t, src.Save(ctx, source.Replace([]byte(`{"v":2}`))))
	select {
	case n := <-got:
		assert.Equal(t, map[string]any{"v": int64(2)}, n.Value())
	case <-time.After(time.Second):
		t.Fatal("no notification")
	}
}
