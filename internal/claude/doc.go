// Package claude is the HTTP client for the Anthropic Messages and
// Models APIs.
//
// # Overview
//
// The package exposes a [Client] with three operations:
//
//   - [Client.Cleanup] sends text through a model and returns the
//     parsed cleaned text plus optional commentary.
//   - [Client.TestConnection] probes connectivity with a minimal fixed
//     prompt and reports the outcome as data, never as an error.
//   - [Client.FetchModels] retrieves the live model catalog for the
//     model cache.
//
// Requests authenticate with the x-api-key header and pin the
// anthropic-version header, so responses stay shape-stable across
// provider rollouts.
//
// # Error handling
//
// Every failure is reported as *[Error] carrying exactly one
// [ErrorKind]. The set of kinds is closed; callers branch with
// errors.As (or the [KindOf] helper) rather than by matching message
// text:
//
//	out, err := client.Cleanup(ctx, req)
//	if err != nil {
//	    var apiErr *claude.Error
//	    if errors.As(err, &apiErr) && apiErr.Kind == claude.KindCredential {
//	        // prompt the user to re-enter their key
//	    }
//	    return err
//	}
//
// # Retry policy
//
// Cleanup and connection tests make up to three attempts. Transport
// failures, HTTP 429, and HTTP 5xx are retried after a delay that
// starts at one second and doubles per attempt; credential rejections,
// other 4xx responses, and malformed replies fail immediately. When
// every attempt fails, the final error is [KindRateLimited] wrapping
// the last underlying failure. Model catalog fetches are a single
// round trip: staleness and fallback policy belong to the model cache,
// not to this package.
//
// # Validation
//
// Cleanup validates before touching the network: a missing key, input
// over the character or token ceilings, or a custom commentary style
// without an instruction all fail locally with zero network calls.
package claude
