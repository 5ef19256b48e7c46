package balance

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamehtml/tamehtml/sax"
	"github.com/tamehtml/tamehtml/scan"
)

func fmtEvent(ev sax.Event) string {
	switch ev.Type {
	case sax.StartDocument:
		return "(doc"
	case sax.EndDocument:
		return ")doc"
	case sax.StartElement:
		var b strings.Builder
		b.WriteByte('<')
		b.WriteString(ev.Name)
		for _, a := range ev.Attrs {
			fmt.Fprintf(&b, " %s=%q", a.Name, a.Value)
		}
		b.WriteByte('>')
		return b.String()
	case sax.EmptyElement:
		return "<" + ev.Name + "/>"
	case sax.EndElement:
		return "</" + ev.Name + ">"
	case sax.Characters:
		return fmt.Sprintf("%q", ev.Text)
	case sax.Comment:
		return "<!--" + ev.Text + "-->"
	case sax.DoctypeDecl:
		return "<!DOCTYPE " + ev.Name + ">"
	}
	return "?"
}

// balanceEvents scans input through the balancer and returns the events
// between startDocument and endDocument.
func balanceEvents(t *testing.T, input string, opts Options) []string {
	t.Helper()
	rec := &sax.Recorder{}
	b := New(rec, opts)
	s := scan.NewScanner(scan.NewSource(strings.NewReader(input), 0), b, scan.DefaultOptions())
	_, err := s.Scan(true)
	require.NoError(t, err)
	require.NotEmpty(t, rec.Events)
	require.Equal(t, sax.StartDocument, rec.Events[0].Type)
	require.Equal(t, sax.EndDocument, rec.Events[len(rec.Events)-1].Type)
	var out []string
	for _, ev := range rec.Events[1 : len(rec.Events)-1] {
		out = append(out, fmtEvent(ev))
	}
	return out
}

func TestBalancerImplicitStructure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"implied body", `<p>hi</p>`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`, `<p>`, `"hi"`, `</p>`, `</body>`, `</html>`,
		}},
		{"bare text", `hi`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`, `"hi"`, `</body>`, `</html>`,
		}},
		{"explicit structure preserved", `<html><head></head><body><p>a</p></body></html>`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`, `<p>`, `"a"`, `</p>`, `</body>`, `</html>`,
		}},
		{"title grows a head", `<title>t</title>`, []string{
			`<html>`, `<head>`, `<title>`, `"t"`, `</title>`, `</head>`, `<body>`, `</body>`, `</html>`,
		}},
		{"unclosed elements closed at eof", `<div><b>x`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`, `<div>`, `<b>`, `"x"`, `</b>`, `</div>`, `</body>`, `</html>`,
		}},
		{"empty html gets head and body", `<html></html>`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`, `</body>`, `</html>`,
		}},
		{"duplicate body ignored", `<body><body><p>x`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`, `<p>`, `"x"`, `</p>`, `</body>`, `</html>`,
		}},
		{"whitespace before root is replayed in body", " \n<p>x</p>", []string{
			`<html>`, `<head>`, `</head>`, `<body>`, `" \n"`, `<p>`, `"x"`, `</p>`, `</body>`, `</html>`,
		}},
		{"content after deferred body end recovered", `<body>x</body>y`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`, `"x"`, `"y"`, `</body>`, `</html>`,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := balanceEvents(t, tt.input, Options{})
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBalancerImplicitCloses(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"p closes p", `<p>a<p>b`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`,
			`<p>`, `"a"`, `</p>`, `<p>`, `"b"`, `</p>`,
			`</body>`, `</html>`,
		}},
		{"li closes li", `<ul><li>a<li>b</ul>`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`,
			`<ul>`, `<li>`, `"a"`, `</li>`, `<li>`, `"b"`, `</li>`, `</ul>`,
			`</body>`, `</html>`,
		}},
		{"dt closes dd", `<dl><dd>a<dt>b</dl>`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`,
			`<dl>`, `<dd>`, `"a"`, `</dd>`, `<dt>`, `"b"`, `</dt>`, `</dl>`,
			`</body>`, `</html>`,
		}},
		{"div closes p", `<p>a<div>b</div>`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`,
			`<p>`, `"a"`, `</p>`, `<div>`, `"b"`, `</div>`,
			`</body>`, `</html>`,
		}},
		{"stray li grows a list", `<li>x`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`,
			`<ul>`, `<li>`, `"x"`, `</li>`, `</ul>`,
			`</body>`, `</html>`,
		}},
		{"stray tr grows tbody in table", `<table><tr><td>x`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`,
			`<table>`, `<tbody>`, `<tr>`, `<td>`, `"x"`, `</td>`, `</tr>`, `</tbody>`, `</table>`,
			`</body>`, `</html>`,
		}},
		{"td closes td", `<table><tr><td>a<td>b`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`,
			`<table>`, `<tbody>`, `<tr>`, `<td>`, `"a"`, `</td>`, `<td>`, `"b"`, `</td>`, `</tr>`, `</tbody>`, `</table>`,
			`</body>`, `</html>`,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := balanceEvents(t, tt.input, Options{})
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBalancerMisnestedInline(t *testing.T) {
	got := balanceEvents(t, `<i>a<b>bc</i>d</b>`, Options{})
	want := []string{
		`<html>`, `<head>`, `</head>`, `<body>`,
		`<i>`, `"a"`, `<b>`, `"bc"`, `</b>`, `</i>`, `<b>`, `"d"`, `</b>`,
		`</body>`, `</html>`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestBalancerInlineReopenedInBlock(t *testing.T) {
	got := balanceEvents(t, `<b>a<div>c</div>`, Options{})
	want := []string{
		`<html>`, `<head>`, `</head>`, `<body>`,
		`<b>`, `"a"`, `</b>`, `<div>`, `<b>`, `"c"`, `</b>`, `</div>`,
		`</body>`, `</html>`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestBalancerInlineReopenKeepsAttributes(t *testing.T) {
	got := balanceEvents(t, `<b class="x">a<div>c</div>`, Options{})
	want := []string{
		`<html>`, `<head>`, `</head>`, `<body>`,
		`<b class="x">`, `"a"`, `</b>`, `<div>`, `<b class="x">`, `"c"`, `</b>`, `</div>`,
		`</body>`, `</html>`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestBalancerTableInTable(t *testing.T) {
	// A table nested inside a cell is legal and preserved.
	got := balanceEvents(t, `<table><tr><td><table></table></td></tr></table>`, Options{})
	want := []string{
		`<html>`, `<head>`, `</head>`, `<body>`,
		`<table>`, `<tbody>`, `<tr>`, `<td>`, `<table>`, `</table>`, `</td>`, `</tr>`, `</tbody>`, `</table>`,
		`</body>`, `</html>`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nested-in-cell mismatch (-want +got):\n%s", diff)
	}

	// A table opened in a row context closes the outer table first.
	got = balanceEvents(t, `<table><tr><table>`, Options{})
	want = []string{
		`<html>`, `<head>`, `</head>`, `<body>`,
		`<table>`, `<tbody>`, `<tr>`, `</tr>`, `</tbody>`, `</table>`, `<table>`, `</table>`,
		`</body>`, `</html>`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("table-in-row mismatch (-want +got):\n%s", diff)
	}
}

func TestBalancerSelectContainment(t *testing.T) {
	got := balanceEvents(t, `<select><option>a<div>x<option>b</select>`, Options{})
	want := []string{
		`<html>`, `<head>`, `</head>`, `<body>`,
		`<select>`, `<option>`, `"a"`, `"x"`, `</option>`, `<option>`, `"b"`, `</option>`, `</select>`,
		`</body>`, `</html>`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestBalancerNestedSelectClosesOuter(t *testing.T) {
	got := balanceEvents(t, `<select><option>a<select>`, Options{})
	want := []string{
		`<html>`, `<head>`, `</head>`, `<body>`,
		`<select>`, `<option>`, `"a"`, `</option>`, `</select>`,
		`</body>`, `</html>`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestBalancerFramesetContainment(t *testing.T) {
	got := balanceEvents(t, `<frameset><frame><div><frame></frameset>`, Options{})
	want := []string{
		`<html>`, `<frameset>`, `<frame/>`, `<frame/>`, `</frameset>`,
		`</html>`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestBalancerStrayEndTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"stray end p materializes", `a</p>b`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`,
			`"a"`, `<p>`, `</p>`, `"b"`,
			`</body>`, `</html>`,
		}},
		{"stray end br acts as br", `a</br>b`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`,
			`"a"`, `<br/>`, `"b"`,
			`</body>`, `</html>`,
		}},
		{"unmatched end dropped", `a</b>c`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`,
			`"a"`, `"c"`,
			`</body>`, `</html>`,
		}},
		{"end of discarded start swallowed", `<body><body>x</body>y`, []string{
			`<html>`, `<head>`, `</head>`, `<body>`, `"x"`, `"y"`, `</body>`, `</html>`,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := balanceEvents(t, tt.input, Options{})
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBalancerIgnoreOutsideContent(t *testing.T) {
	got := balanceEvents(t, `<body>x</body>y`, Options{IgnoreOutsideContent: true})
	want := []string{
		`<html>`, `<head>`, `</head>`, `<body>`, `"x"`, `</body>`, `</html>`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestBalancerInsertDoctype(t *testing.T) {
	got := balanceEvents(t, `<p>x</p>`, Options{
		InsertDoctype: true,
		DoctypePubID:  sax.HTML401TransitionalPubID,
		DoctypeSysID:  sax.HTML401TransitionalSysID,
	})
	require.NotEmpty(t, got)
	assert.Equal(t, `<!DOCTYPE html>`, got[0])
}

func TestBalancerOverrideDoctype(t *testing.T) {
	rec := &sax.Recorder{}
	b := New(rec, Options{
		OverrideDoctype: true,
		DoctypePubID:    sax.HTML401StrictPubID,
		DoctypeSysID:    sax.HTML401StrictSysID,
	})
	s := scan.NewScanner(scan.NewSource(strings.NewReader(`<!DOCTYPE html PUBLIC "x" "y"><p>a</p>`), 0), b, scan.DefaultOptions())
	_, err := s.Scan(true)
	require.NoError(t, err)
	var dt *sax.Event
	for i := range rec.Events {
		if rec.Events[i].Type == sax.DoctypeDecl {
			dt = &rec.Events[i]
		}
	}
	require.NotNil(t, dt)
	assert.Equal(t, sax.HTML401StrictPubID, dt.PublicID)
	assert.Equal(t, sax.HTML401StrictSysID, dt.SystemID)
}

func TestBalancerScriptAutoClose(t *testing.T) {
	// A script left unterminated by the scanner (EOF) is closed by the
	// balancer like any other element; a raw-text script end arrives from
	// the scanner and passes through.
	got := balanceEvents(t, `<script>a<b>c</script>`, Options{})
	want := []string{
		`<html>`, `<head>`, `<script>`, `"a<b>c"`, `</script>`, `</head>`, `<body>`, `</body>`, `</html>`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestBalancerFragmentMode(t *testing.T) {
	got := balanceEvents(t, `<li>x`, Options{FragmentContext: []string{"html", "body", "ul"}})
	want := []string{`<li>`, `"x"`, `</li>`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestBalancerFormRules(t *testing.T) {
	got := balanceEvents(t, `<form><form><input></form>`, Options{})
	want := []string{
		`<html>`, `<head>`, `</head>`, `<body>`,
		`<form>`, `<input/>`, `</form>`,
		`</body>`, `</html>`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nested form mismatch (-want +got):\n%s", diff)
	}

	got = balanceEvents(t, `<table><tr><form><td>x`, Options{})
	want = []string{
		`<html>`, `<head>`, `</head>`, `<body>`,
		`<table>`, `<tbody>`, `<tr>`, `<form>`, `</form>`, `<td>`, `"x"`, `</td>`, `</tr>`, `</tbody>`, `</table>`,
		`</body>`, `</html>`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("form in row mismatch (-want +got):\n%s", diff)
	}
}

func TestBalancerEveryStartHasEnd(t *testing.T) {
	inputs := []string{
		`<p>hi`,
		`<i>a<b>bc</i>d</b>`,
		`<table><tr><table>`,
		`<select><option>a<select>`,
		`<div><div><div>`,
		`<ul><li>a<li>b`,
		`<b>a<div>c`,
		`<title>x`,
		`<frameset><frame>`,
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			rec := &sax.Recorder{}
			b := New(rec, Options{})
			s := scan.NewScanner(scan.NewSource(strings.NewReader(input), 0), b, scan.DefaultOptions())
			_, err := s.Scan(true)
			require.NoError(t, err)
			var stack []string
			for _, ev := range rec.Events {
				switch ev.Type {
				case sax.StartElement:
					stack = append(stack, ev.Name)
				case sax.EndElement:
					require.NotEmpty(t, stack, "unmatched end %s in %q", ev.Name, input)
					assert.Equal(t, stack[len(stack)-1], ev.Name, "misnested end in %q", input)
					stack = stack[:len(stack)-1]
				}
			}
			assert.Empty(t, stack, "unclosed elements in %q", input)
		})
	}
}
