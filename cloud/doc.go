// Package cloud provides a client for the algorithmic trading cloud API:
// projects, files, compiles, backtests, live algorithms and data downloads.
//
// # Architecture
//
//   - Credentials: exactly one of bearer, API key/secret or HTTP basic,
//     selected once by NewCredentials
//   - Connection: attaches credentials, encodes bodies with a Codec and
//     decodes typed responses; every call reports success as a bool and
//     never returns an error
//   - TransportPool: a bounded pool of lazily built HTTP clients used by
//     downloads
//   - Client: one method per remote operation; failures become
//     *OperationError values naming the method
//   - Operations: multi-step workflows such as create, compile and backtest
//
// # Usage
//
//	logger := zerolog.New(os.Stdout)
//	creds := cloud.NewCredentials(userID, token, "", "")
//	client, err := cloud.NewClient("http://localhost:5001/api/v2", creds, logger,
//		cloud.WithTimeout(30*time.Second),
//		cloud.WithPoolSize(5),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	project, err := client.CreateProject(ctx, cloud.CreateProjectRequest{
//		Name:     "Momentum",
//		Language: cloud.LanguagePython,
//	})
//
// # Error Handling
//
// Every facade error wraps ErrRequestFailed:
//
//	var opErr *cloud.OperationError
//	if errors.As(err, &opErr) {
//		fmt.Println(opErr.Op, opErr.Message)
//	}
package cloud
