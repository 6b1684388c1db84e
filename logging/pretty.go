package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// PrettyHandler is a slog.Handler that prints one indented JSON object per
// record. The fixed keys come first in the order time, level, msg, source;
// attributes follow in the order they were added, with groups nested.
// Meant for reading engine traces in a terminal.
type PrettyHandler struct {
	w         io.Writer
	mu        *sync.Mutex
	level     slog.Leveler
	addSource bool

	attrs  []groupedAttr
	groups []string
}

type groupedAttr struct {
	groups []string
	attr   slog.Attr
}

func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	var level slog.Leveler = slog.LevelInfo
	addSource := false
	if opts != nil {
		if opts.Level != nil {
			level = opts.Level
		}
		addSource = opts.AddSource
	}

	return &PrettyHandler{
		w:         w,
		mu:        &sync.Mutex{},
		level:     level,
		addSource: addSource,
	}
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	root := &object{}

	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}
	root.set("time", when.Format(time.RFC3339Nano))
	root.set("level", r.Level.String())
	root.set("msg", r.Message)
	if h.addSource {
		if src := sourceFromPC(r.PC); src != "" {
			root.set("source", src)
		}
	}

	for _, ga := range h.attrs {
		root.add(ga.groups, ga.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		root.add(h.groups, a)
		return true
	})

	var buf bytes.Buffer
	if err := root.write(&buf, ""); err != nil {
		buf.Reset()
		buf.WriteString(`{"time":` + strconv.Quote(when.Format(time.RFC3339Nano)) + `,"level":` + strconv.Quote(r.Level.String()) + `,"msg":` + strconv.Quote(r.Message) + `}`)
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]groupedAttr(nil), h.attrs...)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, groupedAttr{groups: h.groups, attr: a})
	}
	return &clone
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// object is an insertion-ordered JSON object.
type object struct {
	keys []string
	vals map[string]any
}

func (o *object) set(k string, v any) {
	if o.vals == nil {
		o.vals = make(map[string]any)
	}
	if _, ok := o.vals[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.vals[k] = v
}

func (o *object) child(k string) *object {
	if c, ok := o.vals[k].(*object); ok {
		return c
	}
	c := &object{}
	o.set(k, c)
	return c
}

func (o *object) add(groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	dst := o
	for _, g := range groups {
		dst = dst.child(g)
	}
	if a.Value.Kind() == slog.KindGroup {
		if len(a.Value.Group()) == 0 {
			return
		}
		if a.Key == "" {
			for _, ga := range a.Value.Group() {
				dst.add(nil, ga)
			}
			return
		}
		c := dst.child(a.Key)
		for _, ga := range a.Value.Group() {
			c.add(nil, ga)
		}
		return
	}
	dst.set(a.Key, valueToAny(a.Value))
}

func (o *object) write(buf *bytes.Buffer, indent string) error {
	if len(o.keys) == 0 {
		buf.WriteString("{}")
		return nil
	}
	inner := indent + "  "
	buf.WriteString("{\n")
	for i, k := range o.keys {
		buf.WriteString(inner)
		buf.WriteString(strconv.Quote(k))
		buf.WriteString(": ")
		switch v := o.vals[k].(type) {
		case *object:
			if err := v.write(buf, inner); err != nil {
				return err
			}
		default:
			b, err := json.MarshalIndent(v, inner, "  ")
			if err != nil {
				return err
			}
			buf.Write(b)
		}
		if i < len(o.keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString(indent)
	buf.WriteByte('}')
	return nil
}

func valueToAny(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		if s, ok := v.Any().(interface{ String() string }); ok {
			return s.String()
		}
		return v.Any()
	default:
		return v.String()
	}
}

func sourceFromPC(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	f, _ := frames.Next()
	if f.File == "" {
		return ""
	}
	file := f.File
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		file = file[idx+1:]
	}
	return file + ":" + strconv.Itoa(f.Line)
}
