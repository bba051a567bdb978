package types

// ConnectionDescriptor is a named, stored set of connection properties.
// Version is the optimistic-lock token maintained by the registry.
type ConnectionDescriptor struct {
	Name     string `json:"name" yaml:"name" db:"name"`
	URL      string `json:"url" yaml:"url" db:"url"`
	Username string `json:"username" yaml:"username" db:"username"`
	Password string `json:"password,omitempty" yaml:"password" db:"password"`
	Version  int64  `json:"version" yaml:"-" db:"version"`
}

// DatabaseObject is one entry of a table listing (table, view, ...).
type DatabaseObject struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Comment string `json:"comment"`
}

// TableColumn describes a single column as reported by the engine.
// Type is empty when the engine's type code has no canonical name.
type TableColumn struct {
	OrderNo          int    `json:"orderNo"`
	Name             string `json:"name"`
	Type             string `json:"type,omitempty"`
	Size             int    `json:"size"`
	Nullable         string `json:"nullable"`
	PrimaryKey       bool   `json:"primaryKey"`
	Comment          string `json:"comment"`
	FractionalDigits int    `json:"fractionalDigits"`
}

// ColumnStatistics holds the engine-computed aggregates of one column.
// MinValue and MaxValue are nil when the column holds no non-null values.
type ColumnStatistics struct {
	Name             string  `json:"name"`
	MinValue         *string `json:"minValue"`
	MaxValue         *string `json:"maxValue"`
	NullValuesNumber int64   `json:"nullValuesNumber"`
}

type TableStatistics struct {
	Rows                 int64         `json:"rows"`
	Columns              int           `json:"columns"`
	ColumnStatisticsList []TableColumn `json:"columnStatisticsList"`
}

// Row is one previewed row; nil entries are SQL NULLs.
type Row []*string
