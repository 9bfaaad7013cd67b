// Package sqlframe is a lazy dataframe API on top of SQLite.
//
// A SessionContext owns one SQLite database. Tables are registered from
// Arrow tables, Go slices, Parquet or CSV files, and every DataFrame is an
// immutable query over them: Select, Drop, Head, Tail and WithColumns
// return new frames with a statically known Arrow schema, and nothing runs
// until the frame is exported with ToArrowTable, ToRows, ToGalleon or
// WriteParquet. Expressions (Col, Lit and their operators) render to SQL
// fragments whose result type is inferred from the input schema, so
// unknown columns and type errors surface when a frame is built, not when
// it is executed.
package sqlframe
