package lm

import (
	"strings"

	"github.com/teranos/resample/errors"
)

// ParseSpec parses a formula of the form
//
//	response ~ predictor1 + predictor2 [| group1 + group2]
//
// into a Spec. Whitespace around names is ignored.
func ParseSpec(formula string) (Spec, error) {
	var spec Spec

	lhs, rhs, ok := strings.Cut(formula, "~")
	if !ok {
		return spec, errors.Newf("formula %q has no ~", formula)
	}
	spec.Response = strings.TrimSpace(lhs)
	if spec.Response == "" {
		return spec, errors.Newf("formula %q has no response", formula)
	}

	predictors, groups, _ := strings.Cut(rhs, "|")
	spec.Predictors = splitTerms(predictors)
	if len(spec.Predictors) == 0 {
		return spec, errors.Newf("formula %q has no predictors", formula)
	}
	spec.Groups = splitTerms(groups)
	return spec, nil
}

func splitTerms(s string) []string {
	var terms []string
	for _, part := range strings.Split(s, "+") {
		if term := strings.TrimSpace(part); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}
