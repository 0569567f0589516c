package service

import "strconv"

type ErrDeployQueueFull struct{}

func (e ErrDeployQueueFull) Error() string {
	return "deployment queue is full"
}

func NewErrDeployQueueFull() *ErrDeployQueueFull {
	return &ErrDeployQueueFull{}
}

type WorkspaceConflictError struct {
	Dir string
}

func (e WorkspaceConflictError) Error() string {
	return "directory " + e.Dir + " is not empty and is not a git repository"
}

type InvalidProjectDirError struct {
	Dir    string
	Reason string
}

func (e InvalidProjectDirError) Error() string {
	return "invalid project directory " + strconv.Quote(e.Dir) + ": " + e.Reason
}
