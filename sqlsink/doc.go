// Package sqlsink loads rows from a nullcsv.Reader into a SQL table.
//
// A load is all-or-nothing: the header declares the columns, every row is
// inserted inside one transaction, and any failure rolls the whole
// transaction back. Values are bound as NULL, integer, float, or text; see
// Infer for the rules.
package sqlsink
