// Package model describes the data models a CMS exposes to relation widgets:
// model identifiers, key kinds, records and foreign-key relations. Stores use
// the Model definitions to validate lookup fields and coerce reference values;
// widgets only ever see ModelID and Relation.
package model
