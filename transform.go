package stringdb

// KeyTransformer converts keys between an outer and inner representation.
type KeyTransformer[Kouter any, Kinner any] struct {
	Pre  func(Kouter) Kinner
	Post func(Kinner) Kouter
}

// ValueTransformer converts values between an outer and inner
// representation.
type ValueTransformer[Vouter any, Vinner any] struct {
	Pre  func(Vouter) Vinner
	Post func(Vinner) Vouter
}

// TransformDatabase composes an inner Database[Kinner,Vinner] with a pair of
// Transformers, converting every argument inbound (Pre) and every result
// outbound (Post), as described in COMPONENT DESIGN §TransformDatabase.
// Enumeration re-wraps each inner LazyLoader so its Load applies Post to
// the inner result.
type TransformDatabase[Kouter any, Vouter any, Kinner any, Vinner any] struct {
	inner        Database[Kinner, Vinner]
	keys         KeyTransformer[Kouter, Kinner]
	values       ValueTransformer[Vouter, Vinner]
	disposeInner bool
}

// NewTransformDatabase wraps inner with the given key and value
// transformers. If disposeInner is true, Dispose also disposes inner.
func NewTransformDatabase[Kouter any, Vouter any, Kinner any, Vinner any](
	inner Database[Kinner, Vinner],
	keys KeyTransformer[Kouter, Kinner],
	values ValueTransformer[Vouter, Vinner],
	disposeInner bool,
) *TransformDatabase[Kouter, Vouter, Kinner, Vinner] {
	return &TransformDatabase[Kouter, Vouter, Kinner, Vinner]{
		inner:        inner,
		keys:         keys,
		values:       values,
		disposeInner: disposeInner,
	}
}

type transformedLoader[Vouter any, Vinner any] struct {
	inner LazyLoader[Vinner]
	post  func(Vinner) Vouter
}

func (l transformedLoader[Vouter, Vinner]) Load() (Vouter, error) {
	v, err := l.inner.Load()
	if err != nil {
		var zero Vouter
		return zero, err
	}
	return l.post(v), nil
}

func (t *TransformDatabase[Kouter, Vouter, Kinner, Vinner]) wrap(kv KeyValue[Kinner, Vinner]) KeyValue[Kouter, Vouter] {
	return KeyValue[Kouter, Vouter]{
		Key:   t.keys.Post(kv.Key),
		Value: transformedLoader[Vouter, Vinner]{inner: kv.Value, post: t.values.Post},
	}
}

func (t *TransformDatabase[Kouter, Vouter, Kinner, Vinner]) Insert(key Kouter, value Vouter) error {
	return t.inner.Insert(t.keys.Pre(key), t.values.Pre(value))
}

func (t *TransformDatabase[Kouter, Vouter, Kinner, Vinner]) InsertRange(pairs []KeyValue[Kouter, Vouter]) error {
	inner := make([]KeyValue[Kinner, Vinner], len(pairs))
	for i, p := range pairs {
		v, err := p.Value.Load()
		if err != nil {
			return err
		}
		inner[i] = KeyValue[Kinner, Vinner]{
			Key:   t.keys.Pre(p.Key),
			Value: newImmediateLoader(t.values.Pre(v)),
		}
	}
	return t.inner.InsertRange(inner)
}

func (t *TransformDatabase[Kouter, Vouter, Kinner, Vinner]) Get(key Kouter) (Vouter, error) {
	v, err := t.inner.Get(t.keys.Pre(key))
	if err != nil {
		var zero Vouter
		return zero, err
	}
	return t.values.Post(v), nil
}

func (t *TransformDatabase[Kouter, Vouter, Kinner, Vinner]) TryGet(key Kouter) (Vouter, bool, error) {
	v, ok, err := t.inner.TryGet(t.keys.Pre(key))
	if err != nil || !ok {
		var zero Vouter
		return zero, ok, err
	}
	return t.values.Post(v), true, nil
}

func (t *TransformDatabase[Kouter, Vouter, Kinner, Vinner]) GetAll(key Kouter) ([]LazyLoader[Vouter], error) {
	loaders, err := t.inner.GetAll(t.keys.Pre(key))
	if err != nil {
		return nil, err
	}
	out := make([]LazyLoader[Vouter], len(loaders))
	for i, l := range loaders {
		out[i] = transformedLoader[Vouter, Vinner]{inner: l, post: t.values.Post}
	}
	return out, nil
}

func (t *TransformDatabase[Kouter, Vouter, Kinner, Vinner]) Enumerate() ([]KeyValue[Kouter, Vouter], error) {
	inner, err := t.inner.Enumerate()
	if err != nil {
		return nil, err
	}
	out := make([]KeyValue[Kouter, Vouter], len(inner))
	for i, kv := range inner {
		out[i] = t.wrap(kv)
	}
	return out, nil
}

func (t *TransformDatabase[Kouter, Vouter, Kinner, Vinner]) First() (KeyValue[Kouter, Vouter], error) {
	kv, err := t.inner.First()
	if err != nil {
		return KeyValue[Kouter, Vouter]{}, err
	}
	return t.wrap(kv), nil
}

func (t *TransformDatabase[Kouter, Vouter, Kinner, Vinner]) Dispose() error {
	if t.disposeInner {
		return t.inner.Dispose()
	}
	return nil
}

var _ Database[string, string] = (*TransformDatabase[string, string, string, string])(nil)
