// Package filtering selects the files a backup task archives.
//
// A PathFilter combines the task's inclusion pattern with its exclusion
// patterns. Patterns are matched against slash-separated paths relative to
// the task's base directory using gobwas/glob with '/' as separator:
//
//   - "*" matches within a single path element
//   - "**" matches across path elements
//   - "?" and character classes "[...]" behave as in filepath.Match
//   - "{a,b}" matches either alternative
//
// A leading "**/" also matches zero directories, so "**/*.sav" selects
// "slot1.sav" as well as "profiles/a/slot1.sav".
//
// # Filtering Logic
//
//  1. If the path matches any exclude pattern -> exclude (precedence)
//  2. If the path matches the inclusion pattern -> include
//  3. Otherwise -> exclude
//
// # Usage Example
//
//	filter, err := NewPathFilter("**/*.sav", []string{"**/autosave*"})
//	if err != nil {
//		return err
//	}
//	files, err := filter.Select(basePath)
package filtering
