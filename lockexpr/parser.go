package lockexpr

import (
	"fmt"

	"github.com/railsim-tools/interlock/model"
)

// Mode selects how the top level of an expression is shaped.
type Mode int

const (
	// ModeDefault collapses a multi-item top-level sequence into one
	// implicit And root.
	ModeDefault Mode = iota
	// ModeRouteLock yields a list of independently numbered top-level
	// groups, one per item, supporting several OR'd lock clauses per
	// object. Parenthesized groups become Reversed And nodes.
	ModeRouteLock
)

// Config carries the parse context of one lock-expression field.
type Config struct {
	StationID string
	Adjacency map[string][]string // station -> ordered adjacent stations
	Mode      Mode
}

// parseState is the active context while descending the token sequence. It
// is passed by value: bracket scopes mutate their copy only.
type parseState struct {
	station      string
	reverse      bool
	totalControl bool
	mode         Mode
	adjacency    map[string][]string
}

// Parse tokenizes and parses one lock-expression field. It returns the
// ordered top-level groups: at most one in default mode, one per top-level
// item in route-lock mode. An empty expression yields no groups.
func Parse(input string, cfg Config) ([]*Item, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}

	st := parseState{
		station:   cfg.StationID,
		mode:      cfg.Mode,
		adjacency: cfg.Adjacency,
	}
	items, rest, err := parseSequence(tokens, st)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: unmatched %v at offset %d", model.ErrMalformedExpression, rest[0].Type, rest[0].Pos)
	}

	if cfg.Mode == ModeRouteLock {
		return items, nil
	}
	switch len(items) {
	case 0:
		return nil, nil
	case 1:
		return items, nil
	default:
		return []*Item{groupAnd(st, items)}, nil
	}
}

// parseSequence consumes tokens left to right, returning the accumulated
// items and the unconsumed remainder. It stops on any closing bracket,
// leaving it for the caller to validate.
func parseSequence(ts []Token, st parseState) ([]*Item, []Token, error) {
	var items []*Item

	for len(ts) > 0 {
		tok := ts[0]
		switch tok.Type {
		case TokenRSquare, TokenRSquare2, TokenRParen, TokenRParen2, TokenRBrace:
			return items, ts, nil

		case TokenName:
			items = append(items, &Item{
				Op:           OpLeaf,
				Name:         tok.Literal,
				StationID:    st.station,
				Reverse:      st.reverse,
				TotalControl: st.totalControl,
			})
			ts = ts[1:]

		case TokenTimer:
			if len(items) == 0 {
				return nil, nil, fmt.Errorf("%w: timer %q with no preceding item at offset %d", model.ErrMalformedExpression, tok.Literal, tok.Pos)
			}
			items[len(items)-1].TimerSeconds = tok.Seconds
			ts = ts[1:]

		case TokenLBrace:
			// Pure grouping: flattens into the surrounding sequence.
			inner, rest, err := parseSubgroup(ts, st, TokenRBrace)
			if err != nil {
				return nil, nil, err
			}
			items = append(items, inner...)
			ts = rest

		case TokenLParen2:
			// Overall-control content comes from a separately sourced
			// table; the group is validated and discarded, so items
			// tagged TotalControl never reach the materializer.
			st2 := st
			st2.totalControl = true
			_, rest, err := parseSubgroup(ts, st2, TokenRParen2)
			if err != nil {
				return nil, nil, err
			}
			ts = rest

		case TokenLSquare, TokenLSquare2:
			n := 1
			closing := TokenRSquare
			if tok.Type == TokenLSquare2 {
				n = 2
				closing = TokenRSquare2
			}
			adjacent := st.adjacency[st.station]
			if len(adjacent) < n {
				return nil, nil, fmt.Errorf("%w: station %s has no adjacency entry %d for %q at offset %d",
					model.ErrMissingUpstreamData, st.station, n, tok.Literal, tok.Pos)
			}
			st2 := st
			st2.station = adjacent[n-1]
			inner, rest, err := parseSubgroup(ts, st2, closing)
			if err != nil {
				return nil, nil, err
			}
			items = append(items, inner...)
			ts = rest

		case TokenLParen:
			if st.mode == ModeRouteLock {
				inner, rest, err := parseSubgroup(ts, st, TokenRParen)
				if err != nil {
					return nil, nil, err
				}
				items = append(items, &Item{
					Op:        OpAnd,
					StationID: st.station,
					Reverse:   true,
					Children:  inner,
				})
				ts = rest
				break
			}
			// Default mode: reverse propagates into the sub-parse without
			// wrapping, and the content must come to exactly one item.
			st2 := st
			st2.reverse = true
			inner, rest, err := parseSubgroup(ts, st2, TokenRParen)
			if err != nil {
				return nil, nil, err
			}
			if len(inner) != 1 {
				return nil, nil, fmt.Errorf("%w: reverse group at offset %d holds %d items, want 1",
					model.ErrMalformedExpression, tok.Pos, len(inner))
			}
			items = append(items, inner[0])
			ts = rest

		case TokenBut:
			if len(items) == 0 {
				return nil, nil, fmt.Errorf("%w: 但 with no left operand at offset %d", model.ErrMalformedExpression, tok.Pos)
			}
			right, rest, err := parseSequence(ts[1:], st)
			if err != nil {
				return nil, nil, err
			}
			if len(right) == 0 {
				return nil, nil, fmt.Errorf("%w: 但 with no right operand at offset %d", model.ErrMalformedExpression, tok.Pos)
			}
			// The whole preceding sequence anchors as the left operand:
			// Or(left, Not(right)).
			left := groupAnd(st, items)
			not := &Item{Op: OpNot, StationID: st.station, Children: []*Item{groupAnd(st, right)}}
			items = []*Item{{Op: OpOr, StationID: st.station, Children: []*Item{left, not}}}
			ts = rest

		case TokenOr:
			if len(items) == 0 {
				return nil, nil, fmt.Errorf("%w: 又は with no left operand at offset %d", model.ErrMalformedExpression, tok.Pos)
			}
			right, rest, err := parseSequence(ts[1:], st)
			if err != nil {
				return nil, nil, err
			}
			if len(right) == 0 {
				return nil, nil, fmt.Errorf("%w: 又は with no right operand at offset %d", model.ErrMalformedExpression, tok.Pos)
			}
			left := groupAnd(st, items)
			if len(right) == 1 && right[0].Op == OpOr {
				// Splice a right-hand Or into one flattened node.
				children := append([]*Item{left}, right[0].Children...)
				items = []*Item{{Op: OpOr, StationID: st.station, Children: children}}
			} else {
				items = []*Item{{Op: OpOr, StationID: st.station, Children: []*Item{left, groupAnd(st, right)}}}
			}
			ts = rest

		default:
			return nil, nil, fmt.Errorf("%w: unexpected %v at offset %d", model.ErrMalformedExpression, tok.Type, tok.Pos)
		}
	}

	return items, ts, nil
}

// parseSubgroup parses the bracketed scope opened by ts[0] and consumes the
// expected closing token, which must match the opening run length.
func parseSubgroup(ts []Token, st parseState, closing TokenType) ([]*Item, []Token, error) {
	open := ts[0]
	inner, rest, err := parseSequence(ts[1:], st)
	if err != nil {
		return nil, nil, err
	}
	if len(rest) == 0 {
		return nil, nil, fmt.Errorf("%w: unterminated %v at offset %d", model.ErrMalformedExpression, open.Type, open.Pos)
	}
	if rest[0].Type != closing {
		return nil, nil, fmt.Errorf("%w: %v at offset %d closed by %v at offset %d",
			model.ErrMalformedExpression, open.Type, open.Pos, rest[0].Type, rest[0].Pos)
	}
	return inner, rest[1:], nil
}

// groupAnd wraps a multi-item sequence in an And node; a single item passes
// through unchanged.
func groupAnd(st parseState, items []*Item) *Item {
	if len(items) == 1 {
		return items[0]
	}
	return &Item{Op: OpAnd, StationID: st.station, Children: items}
}
