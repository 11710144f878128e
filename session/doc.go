// Package session drives an interactive MMIX simulator as a prompt-delimited
// request/response conversation.
//
// The simulator reads one command line, works, and then prints the prompt
// "mmix> " once it is ready for the next line. A Session feeds it commands
// one at a time and frames each reply on that prompt. Only one command may
// be outstanding; submitting another before the prompt returns is a
// protocol violation rather than a queued request.
//
// The prompt literal is the only end-of-turn marker the simulator offers, so
// a program that itself prints "mmix> " will end a turn early.
package session
