// Package validate checks generated dashboards and rule files for PromQL
// that does not parse or references metrics bookwatch does not export.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/model/labels"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/bookwatch/tools/dashgen/rules"
)

// Result collects validation findings. Errors fail generation; warnings are
// reported but tolerated.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether no errors were found.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) merge(o Result) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// Expr validates a single PromQL expression. where identifies the expression
// in messages.
func Expr(where, expr string, known map[string]bool) Result {
	var res Result

	node, err := parser.ParseExpr(expr)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: parse %q: %v", where, expr, err))
		return res
	}

	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		vs, ok := n.(*parser.VectorSelector)
		if !ok {
			return nil
		}
		name := vs.Name
		if name == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: selector without metric name in %q", where, expr))
			return nil
		}
		if !known[name] {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: unknown metric %s", where, name))
			return nil
		}
		// Recording rules are already aggregated over the job.
		if !strings.Contains(name, ":") && !hasJobMatcher(vs.LabelMatchers) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %s is not scoped to a job", where, name))
		}
		return nil
	})
	return res
}

func hasJobMatcher(ms []*labels.Matcher) bool {
	for _, m := range ms {
		if m.Name == "job" {
			return true
		}
	}
	return false
}

// panelJSON is the subset of a serialized panel the validator inspects.
type panelJSON struct {
	Title   string      `json:"title"`
	Panels  []panelJSON `json:"panels"`
	Targets []struct {
		Expr string `json:"expr"`
	} `json:"targets"`
}

// Dashboard validates every query target in dash, including panels nested
// in rows.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	var res Result

	data, err := json.Marshal(dash)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("marshaling dashboard: %v", err))
		return res
	}

	var doc struct {
		Panels []panelJSON `json:"panels"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("decoding dashboard: %v", err))
		return res
	}

	var walk func(ps []panelJSON)
	walk = func(ps []panelJSON) {
		for _, p := range ps {
			for i, t := range p.Targets {
				if t.Expr == "" {
					res.Errors = append(res.Errors, fmt.Sprintf("panel %q: target %d has no expression", p.Title, i))
					continue
				}
				res.merge(Expr(fmt.Sprintf("panel %q", p.Title), t.Expr, known))
			}
			walk(p.Panels)
		}
	}
	walk(doc.Panels)

	return res
}

// Rules validates every expression in cr. Names recorded by cr count as
// known for the rest of the file.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var res Result

	all := make(map[string]bool, len(known))
	for k, v := range known {
		all[k] = v
	}
	for _, g := range cr.Spec.Groups {
		for _, r := range g.Rules {
			if r.Record != "" {
				all[r.Record] = true
			}
		}
	}

	for _, g := range cr.Spec.Groups {
		for _, r := range g.Rules {
			name := r.Record
			if name == "" {
				name = r.Alert
			}
			if name == "" {
				res.Errors = append(res.Errors, fmt.Sprintf("group %s: rule has neither record nor alert", g.Name))
				continue
			}
			res.merge(Expr(g.Name+"/"+name, r.Expr, all))
		}
	}
	return res
}
