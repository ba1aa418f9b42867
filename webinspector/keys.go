// Package webinspector implements the Web Inspector remote-debugging
// wire protocol: a length-prefixed binary-property-list RPC spoken between
// Safari/WebKit's remote debugger and a driver process, plus a proxy that
// bridges a device's own Web Inspector service to a local TCP port so
// multiple client connections (and network clients, in the simulator's
// case) can reach it. Grounded on
// original_source/{src,java}/com/google/iosdevicecontrol/webinspector/*.java.
package webinspector

// MessageKey is a field that can appear in a Web Inspector message's
// __argument dictionary. Grounded on MessageKey.java's enum, which pairs
// each key with a wire name and a typed converter; kept here as a plain
// enum plus the accessor functions in this file rather than Java's
// per-value converter objects, since Go has no anonymous-class-per-enum-
// constant idiom.
type MessageKey int

const (
	ApplicationBundleIdentifier MessageKey = iota
	ApplicationDictionary
	ApplicationIdentifier
	ApplicationName
	AutomaticallyPause
	ConnectionIdentifier
	Destination
	DriverDictionary
	HostApplicationIdentifier
	IsApplicationActive
	IsApplicationProxy
	IsApplicationReady
	Listing
	MessageData
	PageIdentifier
	RemoteAutomationEnabled
	Sender
	SimulatorBuild
	SimulatorName
	SimulatorProductVersion
	SocketData
	Title
	Type
	URL
)

// wireString returns the plist dictionary key this MessageKey is encoded
// under on the wire. Every key follows "WIR" + UpperCamel(name) + "Key"
// except URL ("WIRURLKey", not "WIRUrlKey") and AutomaticallyPause
// ("WIRAutomaticallyPause", no trailing "Key") — both called out
// explicitly in MessageKey.java's constructor overloads.
func (k MessageKey) wireString() string {
	switch k {
	case ApplicationBundleIdentifier:
		return "WIRApplicationBundleIdentifierKey"
	case ApplicationDictionary:
		return "WIRApplicationDictionaryKey"
	case ApplicationIdentifier:
		return "WIRApplicationIdentifierKey"
	case ApplicationName:
		return "WIRApplicationNameKey"
	case AutomaticallyPause:
		return "WIRAutomaticallyPause"
	case ConnectionIdentifier:
		return "WIRConnectionIdentifierKey"
	case Destination:
		return "WIRDestinationKey"
	case DriverDictionary:
		return "WIRDriverDictionaryKey"
	case HostApplicationIdentifier:
		return "WIRHostApplicationIdentifierKey"
	case IsApplicationActive:
		return "WIRIsApplicationActiveKey"
	case IsApplicationProxy:
		return "WIRIsApplicationProxyKey"
	case IsApplicationReady:
		return "WIRIsApplicationReadyKey"
	case Listing:
		return "WIRListingKey"
	case MessageData:
		return "WIRMessageDataKey"
	case PageIdentifier:
		return "WIRPageIdentifierKey"
	case RemoteAutomationEnabled:
		return "WIRRemoteAutomationEnabledKey"
	case Sender:
		return "WIRSenderKey"
	case SimulatorBuild:
		return "WIRSimulatorBuildKey"
	case SimulatorName:
		return "WIRSimulatorNameKey"
	case SimulatorProductVersion:
		return "WIRSimulatorProductVersionKey"
	case SocketData:
		return "WIRSocketDataKey"
	case Title:
		return "WIRTitleKey"
	case Type:
		return "WIRTypeKey"
	case URL:
		return "WIRURLKey"
	default:
		panic("webinspector: unknown MessageKey")
	}
}

// argument is the decoded form of a message's __argument dictionary: plist
// primitives (string, bool, int64) plus nested dictionaries and lists of
// dictionaries, exactly what howett.net/plist produces from a bplist/xml
// dict into a map[string]interface{}.
type argument map[string]interface{}

func (a argument) getString(k MessageKey) (string, bool) {
	v, ok := a[k.wireString()].(string)
	return v, ok
}

func (a argument) setString(k MessageKey, v string) {
	a[k.wireString()] = v
}

// getBool reads a genuine plist boolean, except for IsApplicationActive
// which MessageKey.java encodes as a 0/1 integer rather than <true/>/
// <false/> — the one irregular converter in the whole table.
func (a argument) getBool(k MessageKey) (bool, bool) {
	if k == IsApplicationActive {
		n, ok := a.getInt(IsApplicationActive)
		return n == 1, ok
	}
	v, ok := a[k.wireString()].(bool)
	return v, ok
}

func (a argument) setBool(k MessageKey, v bool) {
	if k == IsApplicationActive {
		a.setInt(IsApplicationActive, boolToInt(v))
		return
	}
	a[k.wireString()] = v
}

func boolToInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func (a argument) getInt(k MessageKey) (int64, bool) {
	switch v := a[k.wireString()].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case uint64:
		return int64(v), true
	default:
		return 0, false
	}
}

func (a argument) setInt(k MessageKey, v int64) {
	a[k.wireString()] = v
}

func (a argument) getDict(k MessageKey) (argument, bool) {
	v, ok := a[k.wireString()].(map[string]interface{})
	return argument(v), ok
}

func (a argument) setDict(k MessageKey, v argument) {
	a[k.wireString()] = map[string]interface{}(v)
}

func (a argument) getDictList(k MessageKey) ([]argument, bool) {
	raw, ok := a[k.wireString()].([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]argument, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, argument(m))
		}
	}
	return out, true
}

func (a argument) setDictList(k MessageKey, v []argument) {
	raw := make([]interface{}, len(v))
	for i, item := range v {
		raw[i] = map[string]interface{}(item)
	}
	a[k.wireString()] = raw
}

// getJSON reads MESSAGE_DATA/SOCKET_DATA, wire-encoded as NSData wrapping
// UTF-8 JSON bytes (MessageKey.java's jsonConverter).
func (a argument) getJSON(k MessageKey) ([]byte, bool) {
	v, ok := a[k.wireString()].([]byte)
	return v, ok
}

func (a argument) setJSON(k MessageKey, v []byte) {
	a[k.wireString()] = v
}
