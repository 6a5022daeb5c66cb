package mail

type QuoteReadyEmailData struct {
	Name        string
	Address     string
	CarrierName string
	MRC         string
	NRC         string
	QuoteLink   string
}

type BatchSummaryEmailData struct {
	Name         string
	FileName     string
	Total        int
	Success      int
	Failed       int
	Rows         []BatchSummaryRow
	DashboardURL string
}

type BatchSummaryRow struct {
	RowNumber int
	Address   string
	Status    string
	Detail    string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string

	From    string
	BaseURL string // storefront base, used to build quote links
}
