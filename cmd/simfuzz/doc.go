/*
Simfuzz generates reproducible fuzz inputs from the command line.

Usage: simfuzz <command> [arguments]

The commands are:

	key            derive an execution key
	boundary       generate boundary values
	int            generate integers in a range
	string         generate ASCII strings
	run            run the built-in self-check suite
	help           print this help

The 'key' command:

Usage: simfuzz key -seed=S -suite=X -test=Y -iteration=N [-hash=md5|sha256|blake2b]

The key command prints the execution key for one invocation as 16 hex digits.
The key is what the harness logs for a failing invocation.

The 'boundary' command:

Usage: simfuzz boundary -key=K -width=8|16|32|64 -lo=A -hi=B [-invalid] [-count=N] [-engine=wyrand|mwc]

The boundary command prints boundary values of the range [A, B] for a fuzzer
seeded with K, one per line. With -invalid it prints values just outside the
range. When no value exists it prints 'sentinel' followed by the all-ones
value of the width.

The 'int' command:

Usage: simfuzz int -key=K -min=A -max=B [-count=N] [-engine=wyrand|mwc]

The 'string' command:

Usage: simfuzz string -key=K [-max=N] [-count=N] [-engine=wyrand|mwc]

The string command prints Go-quoted strings of 1 to N bytes.

The 'run' command:

Usage: simfuzz run [-seed=S] [-iterations=N] [-parallel=P] [-run=regexp] [-key=K] [-logformat=raw|indented|pretty] [-log-level=L]

The run command runs the built-in self-check suite through the harness and
prints one line per invocation. Settings not given as flags are read from the
SIMFUZZ_* environment variables. Without a seed a random one is generated and
logged. The command exits with status 1 if any invocation fails.
*/
package main
