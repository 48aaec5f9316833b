package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Carina-TzuHsuan/CS564/internal/catalog"
	"github.com/Carina-TzuHsuan/CS564/internal/engine"
	"github.com/Carina-TzuHsuan/CS564/internal/heap"
)

// repl is a minimal line-oriented command interpreter over *engine.Engine,
// in the spirit of tuannm99-novasql's cmd/manual_test/sql/main.go — a
// sequence of named operations against the engine rather than a full SQL
// grammar, since spec.md's executor exposes exactly three entry points.
type repl struct {
	eng *engine.Engine
}

func newREPL(eng *engine.Engine) *repl {
	return &repl{eng: eng}
}

// Eval parses and runs one command line, returning the text to print (or
// an error). Recognized commands:
//
//	CREATE TABLE rel (attr:TYPE[:len], ...)
//	INSERT INTO rel (attr=value, attr=value, ...)
//	SELECT rel.attr[,rel.attr...] INTO result [WHERE attr OP value]
//	DELETE FROM rel [WHERE attr OP value]
//	DROP TABLE rel
func (r *repl) Eval(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	switch strings.ToUpper(fields[0]) {
	case "CREATE":
		return "", r.create(line)
	case "INSERT":
		return "", r.insert(line)
	case "SELECT":
		return "", r.selectInto(line)
	case "DELETE":
		return r.delete(line)
	case "DROP":
		return "", r.drop(line)
	default:
		return "", fmt.Errorf("minibase: unrecognized command %q", fields[0])
	}
}

func parenBody(line string) (string, error) {
	open := strings.Index(line, "(")
	closeIdx := strings.LastIndex(line, ")")
	if open < 0 || closeIdx < 0 || closeIdx < open {
		return "", fmt.Errorf("minibase: expected parenthesized argument list")
	}
	return line[open+1 : closeIdx], nil
}

func (r *repl) create(line string) error {
	upper := strings.ToUpper(line)
	if !strings.HasPrefix(upper, "CREATE TABLE") {
		return fmt.Errorf("minibase: expected CREATE TABLE")
	}
	rest := strings.TrimSpace(line[len("CREATE TABLE"):])
	name, rest, ok := strings.Cut(rest, "(")
	if !ok {
		return fmt.Errorf("minibase: expected ( after table name")
	}
	name = strings.TrimSpace(name)
	body, err := parenBody("(" + rest)
	if err != nil {
		return err
	}

	var attrs []catalog.AttrInfo
	for _, field := range strings.Split(body, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		parts := strings.Split(field, ":")
		attrName := strings.TrimSpace(parts[0])
		typ := catalog.STRING
		length := 0
		if len(parts) > 1 {
			switch strings.ToUpper(strings.TrimSpace(parts[1])) {
			case "INT", "INTEGER":
				typ = catalog.INTEGER
			case "FLOAT":
				typ = catalog.FLOAT
			case "STRING", "CHAR":
				typ = catalog.STRING
			default:
				return fmt.Errorf("minibase: unknown type %q", parts[1])
			}
		}
		if len(parts) > 2 {
			length, err = strconv.Atoi(strings.TrimSpace(parts[2]))
			if err != nil {
				return fmt.Errorf("minibase: bad length for %s: %w", attrName, err)
			}
		}
		attrs = append(attrs, catalog.AttrInfo{Name: attrName, Type: typ, Length: length})
	}

	return r.eng.CreateTable(name, attrs)
}

func (r *repl) insert(line string) error {
	upper := strings.ToUpper(line)
	if !strings.HasPrefix(upper, "INSERT INTO") {
		return fmt.Errorf("minibase: expected INSERT INTO")
	}
	rest := strings.TrimSpace(line[len("INSERT INTO"):])
	name, rest, ok := strings.Cut(rest, "(")
	if !ok {
		return fmt.Errorf("minibase: expected ( after relation name")
	}
	name = strings.TrimSpace(name)
	body, err := parenBody("(" + rest)
	if err != nil {
		return err
	}

	var attrs []engine.AttrValue
	for _, field := range strings.Split(body, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			return fmt.Errorf("minibase: expected attr=value, got %q", field)
		}
		attrs = append(attrs, engine.AttrValue{Attr: strings.TrimSpace(k), Value: strings.TrimSpace(v)})
	}

	return r.eng.Insert(name, attrs)
}

func parseFilter(clause string) (attrName string, op heap.Op, value string, err error) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return "", heap.EQ, "", nil
	}
	ops := []struct {
		text string
		op   heap.Op
	}{
		{"!=", heap.NE},
		{"<=", heap.LTE},
		{">=", heap.GTE},
		{"<", heap.LT},
		{">", heap.GT},
		{"=", heap.EQ},
	}
	for _, o := range ops {
		if idx := strings.Index(clause, o.text); idx >= 0 {
			return strings.TrimSpace(clause[:idx]), o.op, strings.TrimSpace(clause[idx+len(o.text):]), nil
		}
	}
	return "", heap.EQ, "", fmt.Errorf("minibase: unrecognized filter clause %q", clause)
}

func (r *repl) selectInto(line string) error {
	upper := strings.ToUpper(line)
	if !strings.HasPrefix(upper, "SELECT") {
		return fmt.Errorf("minibase: expected SELECT")
	}
	rest := strings.TrimSpace(line[len("SELECT"):])

	whereClause := ""
	if idx := strings.Index(strings.ToUpper(rest), "WHERE"); idx >= 0 {
		whereClause = strings.TrimSpace(rest[idx+len("WHERE"):])
		rest = rest[:idx]
	}

	intoIdx := strings.Index(strings.ToUpper(rest), "INTO")
	if intoIdx < 0 {
		return fmt.Errorf("minibase: expected INTO")
	}
	projText := strings.TrimSpace(rest[:intoIdx])
	result := strings.TrimSpace(rest[intoIdx+len("INTO"):])

	var projAttrs []engine.ProjAttr
	for _, p := range strings.Split(projText, ",") {
		p = strings.TrimSpace(p)
		relAttr := strings.SplitN(p, ".", 2)
		if len(relAttr) != 2 {
			return fmt.Errorf("minibase: expected relation.attr, got %q", p)
		}
		projAttrs = append(projAttrs, engine.ProjAttr{Relation: strings.TrimSpace(relAttr[0]), Attr: strings.TrimSpace(relAttr[1])})
	}

	filterAttr, op, value, err := parseFilter(whereClause)
	if err != nil {
		return err
	}

	return r.eng.Select(result, projAttrs, filterAttr, value, op)
}

func (r *repl) delete(line string) (string, error) {
	upper := strings.ToUpper(line)
	if !strings.HasPrefix(upper, "DELETE FROM") {
		return "", fmt.Errorf("minibase: expected DELETE FROM")
	}
	rest := strings.TrimSpace(line[len("DELETE FROM"):])

	whereClause := ""
	if idx := strings.Index(strings.ToUpper(rest), "WHERE"); idx >= 0 {
		whereClause = strings.TrimSpace(rest[idx+len("WHERE"):])
		rest = rest[:idx]
	}
	relName := strings.TrimSpace(rest)

	attrName, op, value, err := parseFilter(whereClause)
	if err != nil {
		return "", err
	}

	deleted, err := r.eng.Delete(relName, attrName, op, value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("deleted %d record(s)", deleted), nil
}

func (r *repl) drop(line string) error {
	upper := strings.ToUpper(line)
	if !strings.HasPrefix(upper, "DROP TABLE") {
		return fmt.Errorf("minibase: expected DROP TABLE")
	}
	name := strings.TrimSpace(line[len("DROP TABLE"):])
	return r.eng.DropTable(name)
}
