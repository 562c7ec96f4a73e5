// Package fred provides a rule language for agent-based epidemic
// models and the machinery that runs it.
//
// The rule compiler and evaluator are in package 'core', natural
// histories are in 'history', and a model's machines are run by
// 'crew'.  Some command-line tools are in `cmd`.
package fred
