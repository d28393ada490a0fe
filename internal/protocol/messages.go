package protocol

// Method names.
const (
	MethodInitialize           = "Application.Initialize"
	MethodAcceptConnection     = "Application.AcceptConnection"
	MethodRequestQuit          = "Application.RequestQuit"
	MethodConnectToApplication = "Shell.ConnectToApplication"
	MethodConnectToService     = "ServiceProvider.ConnectToService"
	MethodStartApplication     = "ContentHandler.StartApplication"
	MethodICUDataWithSha1      = "ICUDataProvider.ICUDataWithSha1"
	MethodICUDataResponse      = "ICUDataProvider.ICUDataWithSha1Response"
)

// Service names understood by ServiceProvider.ConnectToService.
const (
	ContentHandlerService  = "mojo::ContentHandler"
	ICUDataProviderService = "mojo::ICUDataProvider"
)

// NoHandle marks an absent handle reference.
const NoHandle = -1

// Initialize hands an application its shell, arguments and URL. Args is
// nil when no arguments were configured, which differs from an empty list.
type Initialize struct {
	Shell int      `json:"shell"`
	Args  []string `json:"args"`
	URL   string   `json:"url"`
}

// AcceptConnection tells an application that requestor connected to it.
type AcceptConnection struct {
	RequestorURL string `json:"requestor_url"`
	ResolvedURL  string `json:"resolved_url"`
	Services     int    `json:"services"`
}

// ConnectToApplication asks the manager to connect the caller to another
// application.
type ConnectToApplication struct {
	ApplicationURL string `json:"application_url"`
	Services       int    `json:"services"`
}

// ConnectToService binds Pipe to the named service.
type ConnectToService struct {
	InterfaceName string `json:"interface_name"`
	Pipe          int    `json:"pipe"`
}

// HTTPHeader is one response header.
type HTTPHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// URLResponse describes content handed to a content handler. Body refers
// to a data pipe consumer.
type URLResponse struct {
	URL        string       `json:"url"`
	StatusCode int          `json:"status_code"`
	StatusLine string       `json:"status_line,omitempty"`
	MimeType   string       `json:"mime_type,omitempty"`
	Headers    []HTTPHeader `json:"headers,omitempty"`
	Body       int          `json:"body"`
}

// StartApplication asks a content handler to run Application, the
// application request pipe, for Response.
type StartApplication struct {
	Application int         `json:"application"`
	Response    URLResponse `json:"response"`
}

// ICUDataRequest asks for the ICU data table matching Sha1.
type ICUDataRequest struct {
	Sha1 string `json:"sha1"`
}

// ICUDataResponse carries the table as a shared buffer when found.
type ICUDataResponse struct {
	Found  bool `json:"found"`
	Buffer int  `json:"buffer"`
}
