package spin

import (
	"context"

	"github.com/summit58/camunda-spin/dataformat"
	"github.com/summit58/camunda-spin/source"
)

// Load reads src and parses the result like FromBytes.
//
// Example:
//
//	n, err := spin.Load(ctx, fs.New("order.xml"))
func Load(ctx context.Context, src source.Source, opts ...Option) (dataformat.Node, error) {
	raw, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return FromBytes(raw, opts...)
}

// Save serializes n with its configuration and writes it to src.
func Save(ctx context.Context, src source.Source, n dataformat.Node) error {
	if !src.CanSave() {
		return source.ErrSaveNotSupported
	}
	data, err := n.Marshal()
	if err != nil {
		return err
	}
	log().WithField("format", n.Format().Name()).Debug("saving node")
	return src.Save(ctx, source.Replace(data))
}

// Watch calls fn with a freshly parsed node after every change of src,
// until ctx is done. Load and parse failures are passed to fn and do not
// end the watch.
func Watch(ctx context.Context, src source.WatchableSource, fn func(dataformat.Node, error), opts ...Option) (source.StopFunc, error) {
	return src.Watch(ctx, func(err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		fn(Load(ctx, src, opts...))
	})
}
