package renderly

import (
	"crypto/sha256"
	"encoding/base64"
	"html/template"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/bokwoon95/googlemaps/ledger"
)

type Asset struct {
	Data      string
	Hash      [32]byte
	External  bool
	Priority  int
	Deferred  bool
	Integrity string
	Placement ledger.Placement
	seq       int
}

// Assets collects the stylesheets and scripts of one page response. Scripts
// with the same placement are written lowest priority first, then in the
// order they were added. Stylesheets and external scripts are added once per
// URL. The zero value is ready to use.
type Assets struct {
	css     []*Asset
	js      []*Asset
	seen    map[string]struct{}
	counter int
}

var _ ledger.Sink = (*Assets)(nil)

func (a *Assets) once(key string) bool {
	if a.seen == nil {
		a.seen = make(map[string]struct{})
	}
	if _, ok := a.seen[key]; ok {
		return false
	}
	a.seen[key] = struct{}{}
	return true
}

func (a *Assets) AddCSS(url string) {
	if !a.once("css " + url) {
		return
	}
	a.css = append(a.css, &Asset{Data: url, External: true})
}

func (a *Assets) AddJS(url string, priority int, deferred bool, integrity string, placement ledger.Placement) {
	if !a.once("js " + url) {
		return
	}
	a.add(&Asset{
		Data:      url,
		External:  true,
		Priority:  priority,
		Deferred:  deferred,
		Integrity: integrity,
		Placement: placement,
	})
}

func (a *Assets) AddInlineJS(code string, priority int, placement ledger.Placement) {
	a.add(&Asset{
		Data:      code,
		Hash:      sha256.Sum256([]byte(code)),
		Priority:  priority,
		Placement: placement,
	})
}

func (a *Assets) add(asset *Asset) {
	asset.seq = a.counter
	a.counter++
	a.js = append(a.js, asset)
}

// CSS returns the <link> elements of the collected stylesheets.
func (a *Assets) CSS() template.HTML {
	b := &strings.Builder{}
	for i, asset := range a.css {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(`<link rel="stylesheet" href="`)
		b.WriteString(template.HTMLEscapeString(asset.Data))
		b.WriteString(`">`)
	}
	return template.HTML(b.String())
}

// Scripts returns the scripts for placement in the order they must run.
// Scripts added without a placement go to the top.
func (a *Assets) Scripts(placement ledger.Placement) []*Asset {
	if placement == ledger.Default {
		placement = ledger.Top
	}
	var scripts []*Asset
	for _, asset := range a.js {
		p := asset.Placement
		if p == ledger.Default {
			p = ledger.Top
		}
		if p == placement {
			scripts = append(scripts, asset)
		}
	}
	sort.SliceStable(scripts, func(i, j int) bool {
		if scripts[i].Priority != scripts[j].Priority {
			return scripts[i].Priority < scripts[j].Priority
		}
		return scripts[i].seq < scripts[j].seq
	})
	return scripts
}

// JS returns the <script> elements for placement.
func (a *Assets) JS(placement ledger.Placement) template.HTML {
	b := &strings.Builder{}
	for i, asset := range a.Scripts(placement) {
		if i > 0 {
			b.WriteString("\n")
		}
		if !asset.External {
			b.WriteString("<script>")
			b.WriteString(asset.Data)
			b.WriteString("</script>")
			continue
		}
		b.WriteString(`<script src="`)
		b.WriteString(template.HTMLEscapeString(asset.Data))
		b.WriteString(`"`)
		if asset.Integrity != "" {
			b.WriteString(` integrity="`)
			b.WriteString(template.HTMLEscapeString(asset.Integrity))
			b.WriteString(`" crossorigin="anonymous"`)
		}
		if asset.Deferred {
			b.WriteString(" defer")
		}
		b.WriteString("></script>")
	}
	return template.HTML(b.String())
}

// ScriptHashes returns the CSP source expressions of the inline scripts.
func (a *Assets) ScriptHashes() string {
	b := &strings.Builder{}
	for _, asset := range a.js {
		if asset.External {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("'sha256-")
		b.WriteString(base64.StdEncoding.EncodeToString(asset.Hash[:]))
		b.WriteString("'")
	}
	return b.String()
}

// AppendCSP adds value to policy in the response's Content-Security-Policy,
// creating the policy directive if needed.
func AppendCSP(w http.ResponseWriter, policy, value string) error {
	const key = "Content-Security-Policy"
	if value == "" {
		return nil
	}
	CSP := w.Header().Get(key)
	if CSP == "" {
		w.Header().Set(key, policy+" "+value)
		return nil
	}
	CSP = strings.ReplaceAll(CSP, "\n", " ") // newlines screw up the regex matching, remove them
	re, err := regexp.Compile(`(.*` + regexp.QuoteMeta(policy) + `[^;]*)(;|$)(.*)`)
	if err != nil {
		return err
	}
	matches := re.FindStringSubmatch(CSP)
	if len(matches) == 0 {
		w.Header().Set(key, CSP+"; "+policy+" "+value)
		return nil
	}
	w.Header().Set(key, matches[1]+" "+value+matches[2]+matches[3])
	return nil
}
