package widget_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dpotapov/goqweb/domtree"
	"github.com/dpotapov/goqweb/qweb"
	"github.com/dpotapov/goqweb/vdom"
	"github.com/dpotapov/goqweb/widget"
)

func newTestQweb(t *testing.T, name, src string) *qweb.QWeb {
	t.Helper()
	root, err := qweb.Parse(strings.NewReader(src))
	require.NoError(t, err)
	qw := qweb.New()
	require.NoError(t, qw.AddTemplate(name, root))
	return qw
}

func htmlOf(t *testing.T, n domtree.Node) string {
	t.Helper()
	h, ok := n.(interface{ HTML() string })
	require.True(t, ok, "node does not expose HTML()")
	return h.HTML()
}

func TestWidgetMountRendersTemplate(t *testing.T) {
	qw := newTestQweb(t, "greeting", `<p t-esc="name"/>`)
	doc := domtree.MemoryDocument{}
	env := widget.NewEnv(qw, doc, nil)
	root := doc.CreateElement("div")

	w := widget.New(env, nil, widget.Spec{Template: "greeting", Vars: map[string]any{"name": "Ada"}})
	require.NoError(t, w.Mount(root))
	require.Equal(t, widget.Mounted, w.State())
	require.Equal(t, "<div><p>Ada</p></div>", htmlOf(t, root))
}

func TestWidgetUpdateStateMarksSchedulerDirty(t *testing.T) {
	qw := newTestQweb(t, "greeting", `<p t-esc="name"/>`)
	doc := domtree.MemoryDocument{}

	var flushed int
	env := widget.NewEnv(qw, doc, func() { flushed++ })
	root := doc.CreateElement("div")

	w := widget.New(env, nil, widget.Spec{Template: "greeting", Vars: map[string]any{"name": "Ada"}})
	require.NoError(t, w.Mount(root))

	w.UpdateState(map[string]any{"name": "Grace"})
	require.Equal(t, 1, flushed)

	dirty := env.Scheduler.Dirty()
	require.Equal(t, []*widget.Widget{w}, dirty)

	require.NoError(t, w.Rerender())
	require.Equal(t, "<div><p>Grace</p></div>", htmlOf(t, root))
}

func TestWidgetDestroyRemovesDOM(t *testing.T) {
	qw := newTestQweb(t, "greeting", `<p t-esc="name"/>`)
	doc := domtree.MemoryDocument{}
	env := widget.NewEnv(qw, doc, nil)
	root := doc.CreateElement("div")

	w := widget.New(env, nil, widget.Spec{Template: "greeting", Vars: map[string]any{"name": "Ada"}})
	require.NoError(t, w.Mount(root))

	w.Destroy()
	require.Equal(t, widget.Destroyed, w.State())
	require.Equal(t, "<div></div>", htmlOf(t, root))
}

func TestWidgetRenderErrorFallsBackToBuiltinVNode(t *testing.T) {
	doc := domtree.MemoryDocument{}
	qw := qweb.New() // no templates registered
	env := widget.NewEnv(qw, doc, nil)
	root := doc.CreateElement("div")

	w := widget.New(env, nil, widget.Spec{Template: "missing"})
	err := w.Mount(root)
	require.Error(t, err)
	require.True(t, errors.Is(err, qweb.ErrTemplateNotFound))
	require.Contains(t, htmlOf(t, root), "widget error")
}

func TestWidgetRecoverHookIsPreferred(t *testing.T) {
	doc := domtree.MemoryDocument{}
	qw := qweb.New()
	env := widget.NewEnv(qw, doc, nil)
	root := doc.CreateElement("div")

	w := widget.New(env, nil, widget.Spec{
		Template: "missing",
		Recover: func(w *widget.Widget, err error) *vdom.VNode {
			return vdom.Element("div", vdom.Text("custom fallback"))
		},
	})
	require.Error(t, w.Mount(root))
	require.Equal(t, "<div><div>custom fallback</div></div>", htmlOf(t, root))
}

// mountRecorder is a Spec-driven test double for lifecycle hook ordering,
// mirroring the teacher's mockComponent style.
type mountRecorder struct {
	calls []string
}

func (r *mountRecorder) spec(template string) widget.Spec {
	return widget.Spec{
		Template: template,
		WillStart: func(w *widget.Widget) error {
			r.calls = append(r.calls, "willStart")
			return nil
		},
		Mounted: func(w *widget.Widget) {
			r.calls = append(r.calls, "mounted")
		},
		WillUnmount: func(w *widget.Widget) {
			r.calls = append(r.calls, "willUnmount")
		},
	}
}

func TestWidgetLifecycleHooksFireInOrder(t *testing.T) {
	qw := newTestQweb(t, "greeting", `<p t-esc="name"/>`)
	doc := domtree.MemoryDocument{}
	env := widget.NewEnv(qw, doc, nil)
	root := doc.CreateElement("div")

	rec := &mountRecorder{}
	w := widget.New(env, nil, rec.spec("greeting"))
	require.NoError(t, w.Mount(root))
	w.Destroy()

	require.Equal(t, []string{"willStart", "mounted", "willUnmount"}, rec.calls)
}
