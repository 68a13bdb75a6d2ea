package drivers

import "ldserver/api/models/constants"

const (
	RegistryMemory        constants.RegistryDriver = "memory"
	RegistrySql           constants.RegistryDriver = "sql"
	RegistryElasticsearch constants.RegistryDriver = "elasticsearch"

	FilesLocal constants.FileDriver = "fs"
	FilesS3    constants.FileDriver = "s3"

	EngineMemory constants.EngineDriver = "memory"
	EngineRemote constants.EngineDriver = "remote"
)
