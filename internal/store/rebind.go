// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package store

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

// ParamStyle identifies the placeholder style the backing driver expects.
// Queries inside the gateway are authored in the canonical "?" style and
// rebound before execution.
type ParamStyle string

const (
	// StyleQuestion passes "?" placeholders through untranslated.
	StyleQuestion ParamStyle = "question"
	// StyleNumeric renumbers placeholders as $1, $2, ...
	StyleNumeric ParamStyle = "numeric"
	// StyleNamed maps placeholders to named arguments @a, @b, ...
	StyleNamed ParamStyle = "named"
)

// namedParamPool is the parameter-name alphabet for StyleNamed.
const namedParamPool = "abcdefghijklmnopqrstuvwxyz"

// rebind translates a canonical "?" query and its positional arguments
// into the given placeholder style. The argument slice is passed through
// uninterpreted except for StyleNamed, where it is folded into a single
// named-argument map.
func rebind(style ParamStyle, query string, args []any) (string, []any, error) {
	switch style {
	case StyleQuestion:
		return query, args, nil

	case StyleNumeric:
		parts := strings.Split(query, "?")
		var b strings.Builder
		for i, part := range parts[:len(parts)-1] {
			b.WriteString(part)
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(i + 1))
		}
		b.WriteString(parts[len(parts)-1])
		return b.String(), args, nil

	case StyleNamed:
		parts := strings.Split(query, "?")
		if len(parts)-1 > len(namedParamPool) {
			return "", nil, oops.Code("STORE_PARAM_OVERFLOW").
				With("placeholders", len(parts)-1).
				Errorf("too many placeholders for named parameter style")
		}
		named := pgx.NamedArgs{}
		var b strings.Builder
		for i, part := range parts[:len(parts)-1] {
			name := string(namedParamPool[i])
			b.WriteString(part)
			b.WriteByte('@')
			b.WriteString(name)
			if i < len(args) {
				named[name] = args[i]
			}
		}
		b.WriteString(parts[len(parts)-1])
		return b.String(), []any{named}, nil
	}

	return "", nil, oops.Code("STORE_BAD_PARAMSTYLE").
		With("style", string(style)).
		Wrap(ErrUnsupportedParamStyle)
}
