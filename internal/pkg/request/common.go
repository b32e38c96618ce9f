package request

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ListParams holds the pagination query parameters shared by list endpoints.
type ListParams struct {
	Page      int    `form:"page,default=1" binding:"min=1"`
	PageSize  int    `form:"page_size,default=20" binding:"min=1,max=100"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// StayQuery is the check-in/check-out pair used by search and quote endpoints.
// Dates are calendar dates in YYYY-MM-DD form.
type StayQuery struct {
	CheckIn  string `form:"check_in" json:"check_in" binding:"required,datetime=2006-01-02"`
	CheckOut string `form:"check_out" json:"check_out" binding:"required,datetime=2006-01-02"`
}
