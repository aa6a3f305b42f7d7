// Package fileutil provides small file-copy helpers used when staging
// synthesized audio segments and assembled output into a job's working
// directory.
//
// CopyFileVerified is used wherever a copy crossing a job boundary (for
// example, handing an assembled track to its final output path) must be
// confirmed byte-for-byte rather than merely "didn't error".
package fileutil
