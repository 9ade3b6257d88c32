// Package preflight provides readiness checks for external services
// and filesystem paths that factcheck depends on.
//
// These checks run in two contexts:
//   - The server runs RunLocal at startup and logs failures as warnings.
//   - The CLI "factcheck status" command renders every check plus the
//     binary dependency list from CheckSystemDeps.
//
// Network checks are skipped when their setting is empty.
package preflight
