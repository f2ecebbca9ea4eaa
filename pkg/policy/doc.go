// Package policy contains the pure decision logic of the governor: the
// fair-share priority scheduler, the RAM penalty rule, and the disk quota
// enforcer. Each rule maps an immutable snapshot plus configuration to a
// list of enforcement actions and performs no I/O of its own.
package policy
