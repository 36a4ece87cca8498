package dblib

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/parser"
	"github.com/pingcap/tidb/parser/ast"
	"github.com/pingcap/tidb/parser/mysql"
	_ "github.com/pingcap/tidb/parser/test_driver"
)

// WhereAnalysis describes a parsed row filter.
type WhereAnalysis struct {
	Columns []string // referenced column names, unqualified, in first-seen order
}

// columnCollector gathers column references while walking an expression tree.
type columnCollector struct {
	seen    map[string]bool
	columns []string
}

func (c *columnCollector) Enter(n ast.Node) (ast.Node, bool) {
	if col, ok := n.(*ast.ColumnNameExpr); ok && col.Name != nil {
		name := col.Name.Name.O
		if !c.seen[name] {
			c.seen[name] = true
			c.columns = append(c.columns, name)
		}
	}
	return n, false
}

func (c *columnCollector) Leave(n ast.Node) (ast.Node, bool) {
	return n, true
}

// ParseWhereClause checks that where is a single boolean expression usable as a
// definition query and returns the columns it references. Double quotes are
// identifiers except for MySQL, matching each database's own dialect.
func ParseWhereClause(where string, dbType DatabaseType) (*WhereAnalysis, error) {
	where = strings.TrimSpace(where)
	if where == "" {
		return &WhereAnalysis{}, nil
	}

	p := parser.New()
	if dbType != MySQL {
		p.SetSQLMode(mysql.ModeANSIQuotes)
	}

	stmtNodes, _, err := p.Parse("SELECT * FROM t WHERE "+where, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse SQL: %w", err)
	}
	if len(stmtNodes) != 1 {
		return nil, fmt.Errorf("expected a single expression, got %d statements", len(stmtNodes))
	}

	stmt, ok := stmtNodes[0].(*ast.SelectStmt)
	if !ok || stmt.Where == nil {
		return nil, fmt.Errorf("expected a row filter expression")
	}
	if stmt.OrderBy != nil || stmt.Limit != nil || stmt.GroupBy != nil {
		return nil, fmt.Errorf("row filter must not contain ORDER BY, GROUP BY or LIMIT")
	}

	collector := &columnCollector{seen: make(map[string]bool)}
	stmt.Where.Accept(collector)

	return &WhereAnalysis{Columns: collector.columns}, nil
}
