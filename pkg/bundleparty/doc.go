// Package bundleparty scans a support bundle for log lines that match named
// search-term sets and writes each analysis to its own result file.
//
// A support bundle is a directory tree of heterogeneous log files. An
// [Analyzer] walks it in a fixed order, streams every *.log and *.json file
// line by line, and keeps the lines that match a [pattern.Set]:
//
//	a, err := bundleparty.NewAnalyzer(bundleparty.WithRoot("./bundle"))
//	if err != nil {
//	    log.Fatal(err) // errors.Is(err, bundleparty.ErrInvalidRoot)
//	}
//
//	set, _ := pattern.Default().Lookup("4")
//	res, err := a.Run(ctx, set)
//	if err != nil {
//	    log.Printf("analysis failed: %v", err)
//	}
//	fmt.Printf("%d matches written to %s\n", len(res.Records), res.OutputPath)
//
// Results go to analysis_results/<output file> under the root. Each line of a
// result file is "<path relative to root>: <matched line>", in file-then-line
// order. Running the same analysis again replaces the file.
//
// # Errors
//
// [ErrInvalidRoot] from [NewAnalyzer] is fatal: the root is missing or is not
// a readable directory. Unreadable subdirectories and files are collected in
// [Result.ScanErrors] as [*ScanError] values and the scan continues. A result
// file that cannot be written is reported as [*OutputError]. [ErrNoTerms] is
// returned before anything is written when a set has no terms.
//
// # Running Several Analyses
//
// [Analyzer.RunAll] runs sets one after another; a failed analysis never stops
// the remaining ones:
//
//	for _, o := range a.RunAll(ctx, pattern.Default().Sets()) {
//	    if o.Err != nil {
//	        log.Printf("%s: %v", o.Set.Name, o.Err)
//	    }
//	}
package bundleparty
