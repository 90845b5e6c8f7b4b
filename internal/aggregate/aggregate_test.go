package aggregate_test

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesreport/internal/aggregate"
	"salesreport/internal/report"
	"salesreport/internal/store"
	"salesreport/internal/store/storetest"
)

var (
	num  = storetest.Int
	name = storetest.Name
)

func aggregators(t *testing.T) []aggregate.Aggregator {
	t.Helper()
	dl, err := aggregate.NewDatalog(nil)
	require.NoError(t, err)
	return []aggregate.Aggregator{
		aggregate.NewRelational(nil),
		aggregate.NewProcedural(nil),
		dl,
	}
}

// runEach runs every strategy against src and asserts they agree.
func runEach(t *testing.T, src store.Source) []report.Row {
	t.Helper()
	ctx := context.Background()

	var first []report.Row
	for i, agg := range aggregators(t) {
		var rows []report.Row
		err := store.WithSource(ctx, src, nil, func(db *sql.DB) error {
			var err error
			rows, err = agg.Aggregate(ctx, db)
			return err
		})
		require.NoError(t, err, agg.Name())
		require.NoError(t, report.Check(rows), agg.Name())

		if i == 0 {
			first = rows
			continue
		}
		if diff := cmp.Diff(first, rows); diff != "" {
			t.Fatalf("%s disagrees with relational (-relational +%s):\n%s", agg.Name(), agg.Name(), diff)
		}
	}
	return first
}

func TestAggregate_EndToEndScenario(t *testing.T) {
	src := storetest.Seeded(t, &store.Dataset{
		Customers: []store.Customer{{CustomerID: 1, Age: num(20)}, {CustomerID: 2, Age: num(40)}},
		Sales:     []store.Sale{{SalesID: 10, CustomerID: 1}, {SalesID: 11, CustomerID: 2}},
		Items:     []store.Item{{ItemID: 100, ItemName: name("Widget")}},
		Orders: []store.Order{
			{SalesID: 10, ItemID: 100, Quantity: num(5)},
			{SalesID: 10, ItemID: 100},
			{SalesID: 11, ItemID: 100, Quantity: num(9)},
		},
	})

	rows := runEach(t, src)
	assert.Equal(t, []report.Row{{Customer: 1, Age: 20, Item: "Widget", Quantity: 5}}, rows)
}

func TestAggregate_AgeBoundary(t *testing.T) {
	ds := &store.Dataset{Items: []store.Item{{ItemID: 1, ItemName: name("Widget")}}}
	for i, age := range []int64{17, 18, 35, 36} {
		id := int64(i + 1)
		ds.Customers = append(ds.Customers, store.Customer{CustomerID: id, Age: num(age)})
		ds.Sales = append(ds.Sales, store.Sale{SalesID: id, CustomerID: id})
		ds.Orders = append(ds.Orders, store.Order{SalesID: id, ItemID: 1, Quantity: num(1)})
	}
	ds.Customers = append(ds.Customers, store.Customer{CustomerID: 9})
	ds.Sales = append(ds.Sales, store.Sale{SalesID: 9, CustomerID: 9})
	ds.Orders = append(ds.Orders, store.Order{SalesID: 9, ItemID: 1, Quantity: num(1)})

	rows := runEach(t, storetest.Seeded(t, ds))
	assert.Equal(t, []report.Row{
		{Customer: 2, Age: 18, Item: "Widget", Quantity: 1},
		{Customer: 3, Age: 35, Item: "Widget", Quantity: 1},
	}, rows)
}

func TestAggregate_NullAndZeroQuantities(t *testing.T) {
	src := storetest.Seeded(t, &store.Dataset{
		Customers: []store.Customer{{CustomerID: 1, Age: num(25)}},
		Sales:     []store.Sale{{SalesID: 1, CustomerID: 1}, {SalesID: 2, CustomerID: 1}},
		Items: []store.Item{
			{ItemID: 1, ItemName: name("only-null")},
			{ItemID: 2, ItemName: name("zero")},
			{ItemID: 3, ItemName: name("cancels-out")},
			{ItemID: 4, ItemName: name("negative")},
			{ItemID: 5, ItemName: name("kept")},
		},
		Orders: []store.Order{
			{SalesID: 1, ItemID: 1},
			{SalesID: 2, ItemID: 1},
			{SalesID: 1, ItemID: 2, Quantity: num(0)},
			{SalesID: 1, ItemID: 3, Quantity: num(4)},
			{SalesID: 2, ItemID: 3, Quantity: num(-4)},
			{SalesID: 1, ItemID: 4, Quantity: num(-2)},
			{SalesID: 1, ItemID: 5, Quantity: num(2)},
			{SalesID: 2, ItemID: 5},
		},
	})

	rows := runEach(t, src)
	assert.Equal(t, []report.Row{{Customer: 1, Age: 25, Item: "kept", Quantity: 2}}, rows)
}

func TestAggregate_MergesSalesOfSameCustomerAndItem(t *testing.T) {
	src := storetest.Seeded(t, &store.Dataset{
		Customers: []store.Customer{{CustomerID: 7, Age: num(30)}},
		Sales:     []store.Sale{{SalesID: 1, CustomerID: 7}, {SalesID: 2, CustomerID: 7}},
		Items:     []store.Item{{ItemID: 1, ItemName: name("Widget")}},
		Orders: []store.Order{
			{SalesID: 1, ItemID: 1, Quantity: num(3)},
			{SalesID: 2, ItemID: 1, Quantity: num(4)},
		},
	})

	rows := runEach(t, src)
	assert.Equal(t, []report.Row{{Customer: 7, Age: 30, Item: "Widget", Quantity: 7}}, rows)
}

func TestAggregate_IdenticalOrdersAreBothCounted(t *testing.T) {
	src := storetest.Seeded(t, &store.Dataset{
		Customers: []store.Customer{{CustomerID: 1, Age: num(30)}},
		Sales:     []store.Sale{{SalesID: 1, CustomerID: 1}},
		Items:     []store.Item{{ItemID: 1, ItemName: name("Widget")}},
		Orders: []store.Order{
			{SalesID: 1, ItemID: 1, Quantity: num(2)},
			{SalesID: 1, ItemID: 1, Quantity: num(2)},
		},
	})

	rows := runEach(t, src)
	assert.Equal(t, []report.Row{{Customer: 1, Age: 30, Item: "Widget", Quantity: 4}}, rows)
}

func TestAggregate_SortOrder(t *testing.T) {
	src := storetest.Seeded(t, &store.Dataset{
		Customers: []store.Customer{
			{CustomerID: 10, Age: num(20)},
			{CustomerID: 2, Age: num(20)},
		},
		Sales: []store.Sale{{SalesID: 1, CustomerID: 10}, {SalesID: 2, CustomerID: 2}},
		Items: []store.Item{
			{ItemID: 1, ItemName: name("pear")},
			{ItemID: 2, ItemName: name("Apple")},
			{ItemID: 3, ItemName: name("apple")},
		},
		Orders: []store.Order{
			{SalesID: 1, ItemID: 1, Quantity: num(1)},
			{SalesID: 1, ItemID: 3, Quantity: num(1)},
			{SalesID: 2, ItemID: 3, Quantity: num(1)},
			{SalesID: 2, ItemID: 1, Quantity: num(1)},
			{SalesID: 2, ItemID: 2, Quantity: num(1)},
		},
	})

	rows := runEach(t, src)
	var got []string
	for _, r := range rows {
		got = append(got, fmt.Sprintf("%d/%s", r.Customer, r.Item))
	}
	assert.Equal(t, []string{"2/Apple", "2/apple", "2/pear", "10/apple", "10/pear"}, got)
}

func TestAggregate_OrphanedKeysDropOut(t *testing.T) {
	src := storetest.Seeded(t, &store.Dataset{
		Customers: []store.Customer{{CustomerID: 1, Age: num(20)}, {CustomerID: 3, Age: num(20)}},
		Sales: []store.Sale{
			{SalesID: 1, CustomerID: 1},
			{SalesID: 2, CustomerID: 2}, // no such customer
		},
		Items: []store.Item{{ItemID: 1, ItemName: name("Widget")}, {ItemID: 2}},
		Orders: []store.Order{
			{SalesID: 1, ItemID: 1, Quantity: num(1)},
			{SalesID: 1, ItemID: 99, Quantity: num(5)}, // no such item
			{SalesID: 1, ItemID: 2, Quantity: num(5)},  // item without a name
			{SalesID: 2, ItemID: 1, Quantity: num(5)},
			{SalesID: 50, ItemID: 1, Quantity: num(5)}, // no such sale
		},
	})

	rows := runEach(t, src)
	assert.Equal(t, []report.Row{{Customer: 1, Age: 20, Item: "Widget", Quantity: 1}}, rows)
}

func TestAggregate_DuplicateKeysFanOut(t *testing.T) {
	src := storetest.Exec(t,
		`CREATE TABLE customers (customer_id INTEGER, age INTEGER)`,
		`CREATE TABLE sales (sales_id INTEGER, customer_id INTEGER)`,
		`CREATE TABLE orders (sales_id INTEGER, item_id INTEGER, quantity INTEGER)`,
		`CREATE TABLE items (item_id INTEGER, item_name TEXT)`,
		`INSERT INTO customers VALUES (1, 20), (1, 21)`,
		`INSERT INTO sales VALUES (5, 1), (5, 1)`,
		`INSERT INTO orders VALUES (5, 7, 3)`,
		`INSERT INTO items VALUES (7, 'Widget')`,
	)

	rows := runEach(t, src)
	assert.Equal(t, []report.Row{
		{Customer: 1, Age: 20, Item: "Widget", Quantity: 6},
		{Customer: 1, Age: 21, Item: "Widget", Quantity: 6},
	}, rows)
}

func TestAggregate_EmptyRelations(t *testing.T) {
	rows := runEach(t, storetest.Seeded(t, &store.Dataset{}))
	assert.Empty(t, rows)
}

func TestAggregate_SampleFixture(t *testing.T) {
	ds, err := store.DefaultFixture()
	require.NoError(t, err)

	rows := runEach(t, storetest.Seeded(t, ds))
	assert.Equal(t, []report.Row{
		{Customer: 1, Age: 21, Item: "x", Quantity: 14},
		{Customer: 2, Age: 23, Item: "x", Quantity: 1},
		{Customer: 2, Age: 23, Item: "y", Quantity: 1},
		{Customer: 2, Age: 23, Item: "z", Quantity: 1},
		{Customer: 3, Age: 35, Item: "z", Quantity: 2},
		{Customer: 5, Age: 18, Item: "z", Quantity: 3},
	}, rows)
}

func TestAggregate_EquivalenceOnGeneratedData(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			ds := generateDataset(rand.New(rand.NewSource(seed)))
			rows := runEach(t, storetest.Seeded(t, ds))
			assert.Equal(t, aggregate.AggregateDataset(ds), rows)
		})
	}
}

// generateDataset builds a dataset with nulls, orphans, boundary ages and
// repeated (customer, item) pairs.
func generateDataset(r *rand.Rand) *store.Dataset {
	ds := &store.Dataset{}
	items := []string{"x", "y", "z", "Widget", "widget", "Gadget"}
	for i, n := range items {
		ds.Items = append(ds.Items, store.Item{ItemID: int64(i + 1), ItemName: name(n)})
	}
	ds.Items = append(ds.Items, store.Item{ItemID: int64(len(items) + 1)})

	for c := int64(1); c <= 25; c++ {
		cust := store.Customer{CustomerID: c}
		if r.Intn(10) > 0 {
			cust.Age = num(int64(15 + r.Intn(25)))
		}
		ds.Customers = append(ds.Customers, cust)
	}
	for s := int64(1); s <= 60; s++ {
		ds.Sales = append(ds.Sales, store.Sale{SalesID: s, CustomerID: int64(1 + r.Intn(28))})
	}
	for o := 0; o < 300; o++ {
		order := store.Order{
			SalesID: int64(1 + r.Intn(63)),
			ItemID:  int64(1 + r.Intn(len(items)+2)),
		}
		if r.Intn(6) > 0 {
			order.Quantity = num(int64(r.Intn(12) - 2))
		}
		ds.Orders = append(ds.Orders, order)
	}
	return ds
}

func TestRelational_MissingTable(t *testing.T) {
	src := storetest.Exec(t, `CREATE TABLE customers (customer_id INTEGER, age INTEGER)`)
	ctx := context.Background()

	err := store.WithSource(ctx, src, nil, func(db *sql.DB) error {
		_, err := aggregate.NewRelational(nil).Aggregate(ctx, db)
		return err
	})
	var dae *store.DataAccessError
	require.ErrorAs(t, err, &dae)
	assert.Equal(t, "query", dae.Op)
}

func TestProcedural_LoadFailure(t *testing.T) {
	src := storetest.Exec(t, `CREATE TABLE customers (customer_id INTEGER, age INTEGER)`)
	ctx := context.Background()

	err := store.WithSource(ctx, src, nil, func(db *sql.DB) error {
		_, err := aggregate.NewProcedural(nil).Aggregate(ctx, db)
		return err
	})
	var dae *store.DataAccessError
	require.ErrorAs(t, err, &dae)
}

func TestDatalog_MatchesProceduralInMemory(t *testing.T) {
	dl, err := aggregate.NewDatalog(nil)
	require.NoError(t, err)

	for seed := int64(10); seed < 15; seed++ {
		ds := generateDataset(rand.New(rand.NewSource(seed)))
		got, err := dl.AggregateDataset(ds)
		require.NoError(t, err)
		if diff := cmp.Diff(aggregate.AggregateDataset(ds), got); diff != "" {
			t.Fatalf("seed %d: datalog mismatch (-procedural +datalog):\n%s", seed, diff)
		}
	}
}
