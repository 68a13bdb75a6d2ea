package serviceInfo

import "fmt"

type ServiceInfo string

var (
	SERVICE_NAME        ServiceInfo = "LD Server"
	SERVICE_WELCOME     ServiceInfo = "Welcome to the LD and aggregation server API!"
	SERVICE_DESCRIPTION ServiceInfo = "Serves linkage disequilibrium and rare-variant score/covariance queries over reference panels."

	SERVICE_ARTIFACT ServiceInfo = "ldserver"
	SERVICE_VERSION  ServiceInfo = "1.0.0"
	SERVICE_ID       ServiceInfo = ServiceInfo(fmt.Sprintf("org.ldserver:%s", SERVICE_ARTIFACT))
)

// set at build time with -ldflags "-X ldserver/api/models/constants/service-info.SERVICE_SHA=..."
var SERVICE_SHA = "unknown"
