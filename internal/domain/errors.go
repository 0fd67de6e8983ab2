package domain

import "errors"

var (
	// ErrInvalidQuestion is returned when a question has no answers to score against.
	ErrInvalidQuestion = errors.New("question has no answers")
	// ErrPropertyTypeNotFound indicates the question tree could not be loaded.
	ErrPropertyTypeNotFound = errors.New("property type not found")
	// ErrQuestionNotFound indicates the flow points at a question that does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAnswerNotFound indicates a submitted answer ID is not a choice of the current question.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrInvalidTransition is returned when an event is not allowed on the current screen.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrAnswerRequired blocks completing the evaluation while the last question is unanswered.
	ErrAnswerRequired = errors.New("answer required to finish evaluation")
	// ErrNoResult is returned when a report is requested before completion.
	ErrNoResult = errors.New("evaluation has no result yet")
	// ErrSaveQueueFull indicates the durable-save queue could not accept a job.
	ErrSaveQueueFull = errors.New("save queue full")
	// ErrSaveQueueClosed indicates the durable-save queue is shut down.
	ErrSaveQueueClosed = errors.New("save queue closed")
)
