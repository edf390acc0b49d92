// Package autospawn is the core of the autospawn daemon: a supervisor that
// keeps relaunching a single shell command, one instance at a time.
//
// # Mechanism of Operation
//
// The supervisor works in ticks. Every tick first rotates the daemon log if it
// has grown past its limit, then checks whether the last launched process is
// still alive. If it is, the supervisor sleeps for the short wait interval and
// polls again. If it isn't, a new process is launched and the supervisor sleeps
// for the longer spawn interval.
//
// # Liveness
//
// The supervisor never waits on its children. Instead, liveness is derived from
// the process table of the host by looking up the numeric PID, so that a
// supervisor that was restarted can take over a process launched by its
// predecessor. The PID of the predecessor's process is recovered from the tail
// of the daemon log, which is why every tick journals the PID it acted on.
//
// The tree of a log folder may look like this:
//
//	/tmp/logs/
//	    pdi_auto_spawn.lock
//	    pdi_auto_spawn.log
//	    pdi_auto_spawn.log20240102150405
//	    pdi_command_output.log
package autospawn
