package aggregate

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
	"go.uber.org/zap"

	"salesreport/internal/report"
	"salesreport/internal/store"
)

// datalogProgram derives report_row from the four relations. Every input fact
// carries its row ordinal so identical rows stay distinct facts and are
// summed once each, as a SQL join would.
var datalogProgram = fmt.Sprintf(`
Decl customer(Row, CustomerId, Age).
Decl sale(Row, SalesId, CustomerId).
Decl order_line(Row, SalesId, ItemId, Quantity).
Decl item(Row, ItemId, Name).

eligible_line(OrderRow, SaleRow, CustomerRow, ItemRow, Customer, Age, Name, Quantity) :-
    order_line(OrderRow, SalesId, ItemId, Quantity),
    sale(SaleRow, SalesId, Customer),
    customer(CustomerRow, Customer, Age),
    item(ItemRow, ItemId, Name),
    Age >= %d,
    Age <= %d.

basket(Customer, Age, Name, Total) :-
    eligible_line(OrderRow, SaleRow, CustomerRow, ItemRow, Customer, Age, Name, Quantity)
    |> do fn:group_by(Customer, Age, Name), let Total = fn:sum(Quantity).

report_row(Customer, Age, Name, Total) :-
    basket(Customer, Age, Name, Total),
    Total > 0.
`, report.MinAge, report.MaxAge)

var reportRowSym = ast.PredicateSym{Symbol: "report_row", Arity: 4}

// Datalog evaluates the report as Mangle rules over facts loaded from the store.
type Datalog struct {
	logger      *zap.Logger
	programInfo *analysis.ProgramInfo
}

// NewDatalog parses and analyzes the rule program.
func NewDatalog(logger *zap.Logger) (*Datalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	unit, err := parse.Unit(bytes.NewReader([]byte(datalogProgram)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse datalog program: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze datalog program: %w", err)
	}

	return &Datalog{logger: logger, programInfo: programInfo}, nil
}

func (d *Datalog) Name() string { return "datalog" }

func (d *Datalog) Aggregate(ctx context.Context, db *sql.DB) ([]report.Row, error) {
	ds, err := store.LoadDataset(ctx, db)
	if err != nil {
		return nil, err
	}
	return d.AggregateDataset(ds)
}

// AggregateDataset evaluates the program over in-memory relations.
// Facts with a NULL age, quantity or item name are not asserted, so they
// never join.
func (d *Datalog) AggregateDataset(ds *store.Dataset) ([]report.Row, error) {
	facts := factstore.NewSimpleInMemoryStore()

	for n, c := range ds.Customers {
		if !c.Age.Valid {
			continue
		}
		facts.Add(ast.NewAtom("customer", ast.Number(int64(n)), ast.Number(c.CustomerID), ast.Number(c.Age.Int64)))
	}
	for n, s := range ds.Sales {
		facts.Add(ast.NewAtom("sale", ast.Number(int64(n)), ast.Number(s.SalesID), ast.Number(s.CustomerID)))
	}
	for n, o := range ds.Orders {
		if !o.Quantity.Valid {
			continue
		}
		facts.Add(ast.NewAtom("order_line", ast.Number(int64(n)), ast.Number(o.SalesID), ast.Number(o.ItemID), ast.Number(o.Quantity.Int64)))
	}
	for n, i := range ds.Items {
		if !i.ItemName.Valid {
			continue
		}
		facts.Add(ast.NewAtom("item", ast.Number(int64(n)), ast.Number(i.ItemID), ast.String(i.ItemName.String)))
	}

	if _, err := mengine.EvalProgramWithStats(d.programInfo, facts); err != nil {
		return nil, fmt.Errorf("failed to evaluate datalog program: %w", err)
	}

	var out []report.Row
	err := facts.GetFacts(ast.NewQuery(reportRowSym), func(atom ast.Atom) error {
		row, err := atomToRow(atom)
		if err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.Sort(out)
	d.logger.Debug("Datalog aggregation complete", zap.Int("rows", len(out)))
	return out, nil
}

func atomToRow(atom ast.Atom) (report.Row, error) {
	if len(atom.Args) != 4 {
		return report.Row{}, fmt.Errorf("unexpected arity %d for %s", len(atom.Args), atom.Predicate.Symbol)
	}
	customer, err := constantInt(atom.Args[0])
	if err != nil {
		return report.Row{}, fmt.Errorf("customer: %w", err)
	}
	age, err := constantInt(atom.Args[1])
	if err != nil {
		return report.Row{}, fmt.Errorf("age: %w", err)
	}
	name, ok := atom.Args[2].(ast.Constant)
	if !ok || name.Type != ast.StringType {
		return report.Row{}, fmt.Errorf("item: expected string constant, got %v", atom.Args[2])
	}
	quantity, err := constantInt(atom.Args[3])
	if err != nil {
		return report.Row{}, fmt.Errorf("quantity: %w", err)
	}
	return report.Row{Customer: customer, Age: age, Item: name.Symbol, Quantity: quantity}, nil
}

// constantInt reads an integer term. Float sums are truncated.
func constantInt(term ast.BaseTerm) (int64, error) {
	c, ok := term.(ast.Constant)
	if !ok {
		return 0, fmt.Errorf("expected constant, got %v", term)
	}
	switch c.Type {
	case ast.NumberType:
		return c.NumValue, nil
	case ast.Float64Type:
		return int64(math.Float64frombits(uint64(c.NumValue))), nil
	default:
		return 0, fmt.Errorf("expected number, got %v", c)
	}
}
