// Package galleonsql exposes a lazy SQL dataframe engine as a backend of a
// backend-neutral dataframe frontend.
//
// The frontend never handles native objects. It builds expressions through
// a Namespace and the combinator methods of Expr, and hands them to a
// LazyFrame, which binds them to its schema with EvaluateExprs and issues
// the matching calls on the wrapped *sqlframe.DataFrame:
//
//	ns, err := galleonsql.Open(galleonsql.DefaultConfig(), logger, nil)
//	if err != nil {
//		return err
//	}
//	defer ns.Close()
//
//	lf, err := ns.ReadParquet("trips.parquet")
//	if err != nil {
//		return err
//	}
//	lf, err = lf.Select(ns.Col("fare").Mul(ns.Col("rate")).Alias("total"), ns.Col("city"))
//	if err != nil {
//		return err
//	}
//	df, err := lf.Collect(compliant.ImplementationGalleon)
//
// Operations outside the capability set of a LazyFrame, Expr or Namespace
// fail with a *compliant.NotImplementedError before any work is done.
package galleonsql
