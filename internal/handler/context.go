package handler

type ContextKey string

var (
	SubCtxKey      ContextKey = "sub"
	EmployeeCtx    ContextKey = "employee"
	ProposalCtxKey ContextKey = "proposal"
)
