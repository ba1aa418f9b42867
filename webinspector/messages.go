package webinspector

import "fmt"

// Selector identifies a Web Inspector message's wire __selector string.
// Grounded on MessageSelector.java's enum, whose wire string is always
// "_rpc_" + lowerCamel(enum name) + ":".
type Selector string

const (
	SelectorApplicationConnected            Selector = "_rpc_applicationConnected:"
	SelectorApplicationDisconnected         Selector = "_rpc_applicationDisconnected:"
	SelectorApplicationSentData             Selector = "_rpc_applicationSentData:"
	SelectorApplicationSentListing          Selector = "_rpc_applicationSentListing:"
	SelectorApplicationUpdated              Selector = "_rpc_applicationUpdated:"
	SelectorForwardGetListing               Selector = "_rpc_forwardGetListing:"
	SelectorForwardSocketData               Selector = "_rpc_forwardSocketData:"
	SelectorForwardSocketSetup              Selector = "_rpc_forwardSocketSetup:"
	SelectorReportConnectedApplicationList   Selector = "_rpc_reportConnectedApplicationList:"
	SelectorReportConnectedDriverList        Selector = "_rpc_reportConnectedDriverList:"
	SelectorReportIdentifier                 Selector = "_rpc_reportIdentifier:"
	SelectorReportSetup                      Selector = "_rpc_reportSetup:"
)

// Message is a single, fully-typed Web Inspector RPC: one Go struct per
// selector, rather than the source's MessageDict base class where every
// field getter not overridden by the concrete subtype throws
// UndefinedPropertyException at runtime. Here a missing required field is a
// decode error returned from DecodeMessage, never a panic; unknown keys are
// ignored and optional fields decode to their zero value — see SPEC_FULL
// §9's design note against replicating that pattern.
type Message interface {
	Selector() Selector
	toArgument() argument
}

// InspectorApplication describes one application visible to the Web
// Inspector. Grounded on InspectorApplication.java.
type InspectorApplication struct {
	BundleID                 string
	ApplicationID             string
	Name                      string
	HostApplicationID         string // optional, "" if absent
	IsActive                  bool
	IsProxy                   bool
	IsReady                   bool // optional
	RemoteAutomationEnabled   bool // optional
}

func (a InspectorApplication) toArgument() argument {
	arg := argument{}
	arg.setString(ApplicationBundleIdentifier, a.BundleID)
	arg.setString(ApplicationIdentifier, a.ApplicationID)
	arg.setString(ApplicationName, a.Name)
	if a.HostApplicationID != "" {
		arg.setString(HostApplicationIdentifier, a.HostApplicationID)
	}
	arg.setBool(IsApplicationActive, a.IsActive)
	arg.setBool(IsApplicationProxy, a.IsProxy)
	arg.setBool(IsApplicationReady, a.IsReady)
	arg.setBool(RemoteAutomationEnabled, a.RemoteAutomationEnabled)
	return arg
}

func inspectorApplicationFromArgument(arg argument) (InspectorApplication, error) {
	var a InspectorApplication
	var ok bool
	if a.BundleID, ok = arg.getString(ApplicationBundleIdentifier); !ok {
		return a, fmt.Errorf("webinspector: application dictionary missing %s", ApplicationBundleIdentifier.wireString())
	}
	if a.ApplicationID, ok = arg.getString(ApplicationIdentifier); !ok {
		return a, fmt.Errorf("webinspector: application dictionary missing %s", ApplicationIdentifier.wireString())
	}
	a.Name, _ = arg.getString(ApplicationName)
	a.HostApplicationID, _ = arg.getString(HostApplicationIdentifier)
	a.IsActive, _ = arg.getBool(IsApplicationActive)
	a.IsProxy, _ = arg.getBool(IsApplicationProxy)
	a.IsReady, _ = arg.getBool(IsApplicationReady)
	a.RemoteAutomationEnabled, _ = arg.getBool(RemoteAutomationEnabled)
	return a, nil
}

// InspectorDriver describes one automation driver connection. Grounded on
// InspectorDriver.java (referenced indirectly via MessageKey.java's
// DRIVER_DICTIONARY converter, keyed by driverId).
type InspectorDriver struct {
	DriverID string
}

func (d InspectorDriver) toArgument() argument {
	return argument{}
}

// InspectorPage describes one inspectable page within an application.
// Grounded on MessageKey.java's LISTING converter, keyed by pageId.
type InspectorPage struct {
	PageID int64
	Title  string
	Type   string
	URL    string
}

func (p InspectorPage) toArgument() argument {
	arg := argument{}
	arg.setInt(PageIdentifier, p.PageID)
	arg.setString(Title, p.Title)
	arg.setString(Type, p.Type)
	arg.setString(URL, p.URL)
	return arg
}

func inspectorPageFromArgument(arg argument) (InspectorPage, error) {
	var p InspectorPage
	var ok bool
	if p.PageID, ok = arg.getInt(PageIdentifier); !ok {
		return p, fmt.Errorf("webinspector: page dictionary missing %s", PageIdentifier.wireString())
	}
	p.Title, _ = arg.getString(Title)
	p.Type, _ = arg.getString(Type)
	p.URL, _ = arg.getString(URL)
	return p, nil
}

// ApplicationConnectedMessage announces a newly-connected application.
type ApplicationConnectedMessage struct{ InspectorApplication }

func (ApplicationConnectedMessage) Selector() Selector { return SelectorApplicationConnected }
func (m ApplicationConnectedMessage) toArgument() argument {
	return m.InspectorApplication.toArgument()
}

// ApplicationDisconnectedMessage announces an application going away.
type ApplicationDisconnectedMessage struct{ InspectorApplication }

func (ApplicationDisconnectedMessage) Selector() Selector { return SelectorApplicationDisconnected }
func (m ApplicationDisconnectedMessage) toArgument() argument {
	return m.InspectorApplication.toArgument()
}

// ApplicationUpdatedMessage announces a change in an already-connected
// application's state (e.g. active/ready flags flipping).
type ApplicationUpdatedMessage struct{ InspectorApplication }

func (ApplicationUpdatedMessage) Selector() Selector { return SelectorApplicationUpdated }
func (m ApplicationUpdatedMessage) toArgument() argument {
	return m.InspectorApplication.toArgument()
}

// ApplicationSentDataMessage carries a driver-bound protocol payload from
// an application (MESSAGE_DATA, a JSON-encoded DevTools/Inspector frame).
type ApplicationSentDataMessage struct {
	ApplicationID string
	Destination   string
	MessageData   []byte
}

func (ApplicationSentDataMessage) Selector() Selector { return SelectorApplicationSentData }
func (m ApplicationSentDataMessage) toArgument() argument {
	arg := argument{}
	arg.setString(ApplicationIdentifier, m.ApplicationID)
	arg.setString(Destination, m.Destination)
	arg.setJSON(MessageData, m.MessageData)
	return arg
}

// ApplicationSentListingMessage reports an application's current page list.
type ApplicationSentListingMessage struct {
	ApplicationID string
	Listing       []InspectorPage
}

func (ApplicationSentListingMessage) Selector() Selector { return SelectorApplicationSentListing }
func (m ApplicationSentListingMessage) toArgument() argument {
	arg := argument{}
	arg.setString(ApplicationIdentifier, m.ApplicationID)
	dicts := make([]argument, len(m.Listing))
	for i, p := range m.Listing {
		dicts[i] = p.toArgument()
	}
	arg.setDictList(Listing, dicts)
	return arg
}

// ForwardGetListingMessage asks an application for its current page list.
type ForwardGetListingMessage struct {
	ApplicationID string
	ConnectionID  string
}

func (ForwardGetListingMessage) Selector() Selector { return SelectorForwardGetListing }
func (m ForwardGetListingMessage) toArgument() argument {
	arg := argument{}
	arg.setString(ApplicationIdentifier, m.ApplicationID)
	arg.setString(ConnectionIdentifier, m.ConnectionID)
	return arg
}

// ForwardSocketDataMessage forwards one frame of the underlying debug
// protocol socket (SOCKET_DATA) between a driver and a specific page.
type ForwardSocketDataMessage struct {
	ApplicationID string
	ConnectionID  string
	PageID        int64
	Sender        string
	SocketData    []byte
}

func (ForwardSocketDataMessage) Selector() Selector { return SelectorForwardSocketData }
func (m ForwardSocketDataMessage) toArgument() argument {
	arg := argument{}
	arg.setString(ApplicationIdentifier, m.ApplicationID)
	arg.setString(ConnectionIdentifier, m.ConnectionID)
	arg.setInt(PageIdentifier, m.PageID)
	arg.setString(Sender, m.Sender)
	arg.setJSON(SocketData, m.SocketData)
	return arg
}

// ForwardSocketSetupMessage opens a forwarding session for one page.
type ForwardSocketSetupMessage struct {
	ApplicationID       string
	AutomaticallyPause  bool
	ConnectionID        string
	PageID              int64
	Sender              string
}

func (ForwardSocketSetupMessage) Selector() Selector { return SelectorForwardSocketSetup }
func (m ForwardSocketSetupMessage) toArgument() argument {
	arg := argument{}
	arg.setString(ApplicationIdentifier, m.ApplicationID)
	arg.setBool(AutomaticallyPause, m.AutomaticallyPause)
	arg.setString(ConnectionIdentifier, m.ConnectionID)
	arg.setInt(PageIdentifier, m.PageID)
	arg.setString(Sender, m.Sender)
	return arg
}

// ReportConnectedApplicationListMessage is the device's full application
// roster, sent in response to a driver reporting its identifier.
type ReportConnectedApplicationListMessage struct {
	Applications []InspectorApplication
}

func (ReportConnectedApplicationListMessage) Selector() Selector {
	return SelectorReportConnectedApplicationList
}
func (m ReportConnectedApplicationListMessage) toArgument() argument {
	arg := argument{}
	dicts := make([]argument, len(m.Applications))
	for i, a := range m.Applications {
		dicts[i] = a.toArgument()
	}
	arg.setDictList(ApplicationDictionary, dicts)
	return arg
}

// ReportConnectedDriverListMessage is the device's list of connected
// automation drivers.
type ReportConnectedDriverListMessage struct {
	Drivers []InspectorDriver
}

func (ReportConnectedDriverListMessage) Selector() Selector {
	return SelectorReportConnectedDriverList
}
func (m ReportConnectedDriverListMessage) toArgument() argument {
	arg := argument{}
	dicts := make([]argument, len(m.Drivers))
	for i, d := range m.Drivers {
		dicts[i] = d.toArgument()
	}
	arg.setDictList(DriverDictionary, dicts)
	return arg
}

// ReportIdentifierMessage is the first message a driver sends: its own
// connection identifier, used to correlate every later exchange.
type ReportIdentifierMessage struct {
	ConnectionID string
}

func (ReportIdentifierMessage) Selector() Selector { return SelectorReportIdentifier }
func (m ReportIdentifierMessage) toArgument() argument {
	arg := argument{}
	arg.setString(ConnectionIdentifier, m.ConnectionID)
	return arg
}

// ReportSetupMessage is the device's response describing the environment
// it runs in — populated only when talking to a simulator.
type ReportSetupMessage struct {
	SimulatorBuild          string // "" if absent (real device)
	SimulatorName           string
	SimulatorProductVersion string
}

func (ReportSetupMessage) Selector() Selector { return SelectorReportSetup }
func (m ReportSetupMessage) toArgument() argument {
	arg := argument{}
	if m.SimulatorBuild != "" {
		arg.setString(SimulatorBuild, m.SimulatorBuild)
	}
	if m.SimulatorName != "" {
		arg.setString(SimulatorName, m.SimulatorName)
	}
	if m.SimulatorProductVersion != "" {
		arg.setString(SimulatorProductVersion, m.SimulatorProductVersion)
	}
	return arg
}

// DecodeMessage builds the typed Message for a wire selector/argument
// pair, the Go-idiomatic replacement for MessageSelector.forString plus
// MessageDict's lazily-populated field getters: every field required by
// the selector's message type is validated up front, so a malformed
// argument surfaces as an error at decode time, not as a panic the first
// time some later code happens to read the missing field.
func DecodeMessage(selector Selector, arg map[string]interface{}) (Message, error) {
	a := argument(arg)
	switch selector {
	case SelectorApplicationConnected:
		app, err := inspectorApplicationFromArgument(a)
		if err != nil {
			return nil, err
		}
		return ApplicationConnectedMessage{app}, nil
	case SelectorApplicationDisconnected:
		app, err := inspectorApplicationFromArgument(a)
		if err != nil {
			return nil, err
		}
		return ApplicationDisconnectedMessage{app}, nil
	case SelectorApplicationUpdated:
		app, err := inspectorApplicationFromArgument(a)
		if err != nil {
			return nil, err
		}
		return ApplicationUpdatedMessage{app}, nil
	case SelectorApplicationSentData:
		appID, ok := a.getString(ApplicationIdentifier)
		if !ok {
			return nil, fmt.Errorf("webinspector: %s missing %s", selector, ApplicationIdentifier.wireString())
		}
		dest, _ := a.getString(Destination)
		data, _ := a.getJSON(MessageData)
		return ApplicationSentDataMessage{ApplicationID: appID, Destination: dest, MessageData: data}, nil
	case SelectorApplicationSentListing:
		appID, ok := a.getString(ApplicationIdentifier)
		if !ok {
			return nil, fmt.Errorf("webinspector: %s missing %s", selector, ApplicationIdentifier.wireString())
		}
		dicts, _ := a.getDictList(Listing)
		pages := make([]InspectorPage, 0, len(dicts))
		for _, d := range dicts {
			p, err := inspectorPageFromArgument(d)
			if err != nil {
				return nil, err
			}
			pages = append(pages, p)
		}
		return ApplicationSentListingMessage{ApplicationID: appID, Listing: pages}, nil
	case SelectorForwardGetListing:
		appID, _ := a.getString(ApplicationIdentifier)
		connID, _ := a.getString(ConnectionIdentifier)
		return ForwardGetListingMessage{ApplicationID: appID, ConnectionID: connID}, nil
	case SelectorForwardSocketData:
		appID, _ := a.getString(ApplicationIdentifier)
		connID, _ := a.getString(ConnectionIdentifier)
		pageID, _ := a.getInt(PageIdentifier)
		sender, _ := a.getString(Sender)
		data, _ := a.getJSON(SocketData)
		return ForwardSocketDataMessage{
			ApplicationID: appID, ConnectionID: connID, PageID: pageID, Sender: sender, SocketData: data,
		}, nil
	case SelectorForwardSocketSetup:
		appID, _ := a.getString(ApplicationIdentifier)
		pause, _ := a.getBool(AutomaticallyPause)
		connID, _ := a.getString(ConnectionIdentifier)
		pageID, _ := a.getInt(PageIdentifier)
		sender, _ := a.getString(Sender)
		return ForwardSocketSetupMessage{
			ApplicationID: appID, AutomaticallyPause: pause, ConnectionID: connID, PageID: pageID, Sender: sender,
		}, nil
	case SelectorReportConnectedApplicationList:
		dicts, _ := a.getDictList(ApplicationDictionary)
		apps := make([]InspectorApplication, 0, len(dicts))
		for _, d := range dicts {
			app, err := inspectorApplicationFromArgument(d)
			if err != nil {
				return nil, err
			}
			apps = append(apps, app)
		}
		return ReportConnectedApplicationListMessage{Applications: apps}, nil
	case SelectorReportConnectedDriverList:
		dicts, _ := a.getDictList(DriverDictionary)
		drivers := make([]InspectorDriver, 0, len(dicts))
		for range dicts {
			drivers = append(drivers, InspectorDriver{})
		}
		return ReportConnectedDriverListMessage{Drivers: drivers}, nil
	case SelectorReportIdentifier:
		connID, ok := a.getString(ConnectionIdentifier)
		if !ok {
			return nil, fmt.Errorf("webinspector: %s missing %s", selector, ConnectionIdentifier.wireString())
		}
		return ReportIdentifierMessage{ConnectionID: connID}, nil
	case SelectorReportSetup:
		build, _ := a.getString(SimulatorBuild)
		name, _ := a.getString(SimulatorName)
		version, _ := a.getString(SimulatorProductVersion)
		return ReportSetupMessage{SimulatorBuild: build, SimulatorName: name, SimulatorProductVersion: version}, nil
	default:
		return nil, fmt.Errorf("webinspector: unknown selector %q", selector)
	}
}
