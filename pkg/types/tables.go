package types

// Standard table names for Store.GetTable.
const (
	UsersTable         = "users"
	AccountsTable      = "accounts"
	CategoriesTable    = "categories"
	SubcategoriesTable = "subcategories"
	TransactionsTable  = "transactions"
	BudgetsTable       = "budgets"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	UsersTable,
	AccountsTable,
	CategoriesTable,
	SubcategoriesTable,
	TransactionsTable,
	BudgetsTable,
}
