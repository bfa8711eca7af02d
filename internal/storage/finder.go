package storage

import (
	"fmt"
	"strings"

	"github.com/tempodeck/tempo/internal/domain"
)

// FindCards runs a card search and returns matching card ids. The query is a
// space-separated list of terms, each optionally negated with a leading '-':
//
//	is:new is:learn is:review is:suspended is:buried
//	deck:Name      (the deck or any descendant; deck:filtered matches cards
//	                currently gathered into any filtered deck)
//	tag:name
//	bare words match note content
//
// orderBy is a SQL order clause over the aliased tables c (cards) and
// n (notes); empty means unspecified order. limit <= 0 means no limit.
func (db *DB) FindCards(search string, orderBy string, limit int) ([]int64, error) {
	var conds []string
	var args []any

	for _, token := range tokenize(search) {
		neg := false
		if strings.HasPrefix(token, "-") {
			neg = true
			token = token[1:]
		}
		cond, condArgs, err := db.compileToken(token)
		if err != nil {
			return nil, err
		}
		if cond == "" {
			continue
		}
		if neg {
			cond = "NOT (" + cond + ")"
		}
		conds = append(conds, cond)
		args = append(args, condArgs...)
	}

	query := "SELECT c.id FROM cards c JOIN notes n ON c.nid = n.id"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if orderBy != "" {
		query += " ORDER BY " + orderBy
	}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return db.QueryLongList(query, args...)
}

func tokenize(search string) []string {
	var tokens []string
	var cur strings.Builder
	depth := 0
	for _, r := range search {
		switch {
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ' ' && depth == 0:
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func (db *DB) compileToken(token string) (string, []any, error) {
	switch {
	case token == "":
		return "", nil, nil
	case strings.HasPrefix(token, "is:"):
		return compileIs(strings.TrimPrefix(token, "is:"))
	case strings.HasPrefix(token, "deck:"):
		return db.compileDeck(strings.TrimPrefix(token, "deck:"))
	case strings.HasPrefix(token, "tag:"):
		tag := strings.TrimPrefix(token, "tag:")
		return "n.tags LIKE ?", []any{"% " + tag + " %"}, nil
	default:
		like := "%" + token + "%"
		return "(n.front LIKE ? OR n.back LIKE ? OR n.context LIKE ?)",
			[]any{like, like, like}, nil
	}
}

func compileIs(kind string) (string, []any, error) {
	switch kind {
	case "new":
		return "c.queue = ?", []any{int(domain.QueueNew)}, nil
	case "learn":
		return "c.queue IN (?, ?, ?)", []any{
			int(domain.QueueLearning), int(domain.QueueDayLearn), int(domain.QueuePreview)}, nil
	case "review":
		return "c.queue = ?", []any{int(domain.QueueReview)}, nil
	case "suspended":
		return "c.queue = ?", []any{int(domain.QueueSuspended)}, nil
	case "buried":
		return "c.queue IN (?, ?)", []any{
			int(domain.QueueSiblingBuried), int(domain.QueueManuallyBuried)}, nil
	default:
		return "", nil, fmt.Errorf("unknown search term is:%s", kind)
	}
}

// compileDeck matches cards in the named deck or any of its descendants.
// The special name "filtered" matches cards currently gathered into any
// filtered deck.
func (db *DB) compileDeck(name string) (string, []any, error) {
	if strings.EqualFold(name, "filtered") {
		return "c.odid != 0", nil, nil
	}
	decks, err := db.LoadDecks()
	if err != nil {
		return "", nil, err
	}
	var dids []string
	for _, d := range decks {
		if strings.EqualFold(d.Name, name) || strings.HasPrefix(strings.ToLower(d.Name), strings.ToLower(name)+".") {
			dids = append(dids, fmt.Sprintf("%d", d.ID))
		}
	}
	if len(dids) == 0 {
		// No such deck matches nothing.
		return "0", nil, nil
	}
	return "c.did IN (" + strings.Join(dids, ",") + ")", nil, nil
}
