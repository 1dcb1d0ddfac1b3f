// Package services implements the driving port interfaces.
//
// The retriever owns the chunk index and answers similarity queries,
// the generator turns retrieved passages into answers or questions,
// and the paper assembler lays generated questions out as an exam paper.
// Services only talk to the outside world through driven ports.
package services
