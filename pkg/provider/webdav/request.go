package webdav

// PropfindBody is the property request sent with every PROPFIND.
//
// It asks for the standard stat properties plus the ownCloud/Nextcloud
// extensions the gallery model needs (fileid, favorite, has-preview).
const PropfindBody = `<?xml version="1.0"?>
<d:propfind xmlns:d="DAV:" xmlns:oc="http://owncloud.org/ns" xmlns:nc="http://nextcloud.org/ns">
	<d:prop>
		<d:getlastmodified />
		<d:getetag />
		<d:getcontenttype />
		<d:resourcetype />
		<d:getcontentlength />
		<oc:fileid />
		<oc:permissions />
		<oc:size />
		<oc:favorite />
		<nc:has-preview />
	</d:prop>
</d:propfind>`

// Depth header values.
const (
	DepthSelf     = "0"
	DepthChildren = "1"
	DepthInfinity = "infinity"
)

const methodPropfind = "PROPFIND"
