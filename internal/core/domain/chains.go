package domain

type ChainID string
type ChainName string

// NetworkType groups chains that share an address format.
type NetworkType string

const (
	NetworkTypeEVM    NetworkType = "evm"
	NetworkTypeSolana NetworkType = "solana"
)

const (
	// Chain IDs as used in upstream URL paths
	ChainIDEthereum  ChainID = "1"
	ChainIDOptimism  ChainID = "10"
	ChainIDBSC       ChainID = "56"
	ChainIDGnosis    ChainID = "100"
	ChainIDPolygon   ChainID = "137"
	ChainIDZkSync    ChainID = "324"
	ChainIDSolana    ChainID = "501"
	ChainIDBase      ChainID = "8453"
	ChainIDArbitrum  ChainID = "42161"
	ChainIDAvalanche ChainID = "43114"
	ChainIDLinea     ChainID = "59144"

	// Chain Names
	ChainNameEthereum  ChainName = "ETHEREUM"
	ChainNameOptimism  ChainName = "OPTIMISM"
	ChainNameBSC       ChainName = "BSC"
	ChainNameGnosis    ChainName = "GNOSIS"
	ChainNamePolygon   ChainName = "POLYGON"
	ChainNameZkSync    ChainName = "ZKSYNC"
	ChainNameSolana    ChainName = "SOLANA"
	ChainNameBase      ChainName = "BASE"
	ChainNameArbitrum  ChainName = "ARBITRUM"
	ChainNameAvalanche ChainName = "AVALANCHE"
	ChainNameLinea     ChainName = "LINEA"
)

// ChainIDToName maps ChainID to its human-readable name.
var ChainIDToName = map[ChainID]ChainName{
	ChainIDEthereum:  ChainNameEthereum,
	ChainIDOptimism:  ChainNameOptimism,
	ChainIDBSC:       ChainNameBSC,
	ChainIDGnosis:    ChainNameGnosis,
	ChainIDPolygon:   ChainNamePolygon,
	ChainIDZkSync:    ChainNameZkSync,
	ChainIDSolana:    ChainNameSolana,
	ChainIDBase:      ChainNameBase,
	ChainIDArbitrum:  ChainNameArbitrum,
	ChainIDAvalanche: ChainNameAvalanche,
	ChainIDLinea:     ChainNameLinea,
}

// ChainNameToID maps Chain Name to its ID.
var ChainNameToID = map[ChainName]ChainID{
	ChainNameEthereum:  ChainIDEthereum,
	ChainNameOptimism:  ChainIDOptimism,
	ChainNameBSC:       ChainIDBSC,
	ChainNameGnosis:    ChainIDGnosis,
	ChainNamePolygon:   ChainIDPolygon,
	ChainNameZkSync:    ChainIDZkSync,
	ChainNameSolana:    ChainIDSolana,
	ChainNameBase:      ChainIDBase,
	ChainNameArbitrum:  ChainIDArbitrum,
	ChainNameAvalanche: ChainIDAvalanche,
	ChainNameLinea:     ChainIDLinea,
}

// IsSupported reports whether the aggregator serves this chain.
func (c ChainID) IsSupported() bool {
	_, ok := ChainIDToName[c]
	return ok
}

// Network returns the address family of the chain.
func (c ChainID) Network() NetworkType {
	if c == ChainIDSolana {
		return NetworkTypeSolana
	}
	return NetworkTypeEVM
}

func (c ChainID) String() string {
	return string(c)
}
