// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Completer,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	provider := mock.NewMockProvider().(*mock.MockProvider)
//	provider.GetMockCompleter().CompleteFunc = func(ctx context.Context, _ string, _ []ai.Message) (string, error) {
//	    <-ctx.Done()
//	    return "", ctx.Err()
//	}
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockCompleter: Returns a canned response and records the last request
//   - MockProvider: Aggregates both and reports DefaultModelID
package mock
