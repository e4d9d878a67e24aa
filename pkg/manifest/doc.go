/*
Package manifest implements artsync's change detection.

A Manifest records the content digest of every artifact produced by a build:
the always-tracked outputs (executable, debug symbols, launch descriptor)
followed by every file in the asset tree. After each pass the manifest is
written to a Store, and the next pass diffs its fresh manifest against the
stored one to find the Transfer Set, i.e. the artifacts whose bytes changed.

Artifacts are compared by path. The position of an entry only determines the
line it's written on, so inserting or removing a file never makes unrelated
files look changed.

Files removed from the build are not tracked. They stay on the destination
until removed by hand.
*/
package manifest
